package access

import (
	"slices"
	"strings"

	"github.com/IGLOU-EU/go-wildcard/v2"

	"github.com/joshuapare/regremote/pkg/codec"
	"github.com/joshuapare/regremote/pkg/session"
	"github.com/joshuapare/regremote/pkg/types"
)

// GetOptions controls read-side presentation. Stored data is never changed.
type GetOptions struct {
	// Kinds lists the kinds the caller accepts; a value of any other kind
	// fails with TypeMismatch. Empty accepts every kind.
	Kinds []types.ValueKind

	// Hex fills Result.Hex for DWord and QWord data.
	Hex bool

	// Expand fills Result.Expanded for ExpandString data using Lookup.
	Expand bool

	// Lookup resolves %NAME% references when Expand is set. Nil leaves
	// every reference unexpanded.
	Lookup func(name string) (string, bool)
}

// Get reads name ("" for the default value) and decodes it according to the
// kind the platform reports.
func Get(key *session.Key, name string, opts GetOptions) (*types.Result, error) {
	if err := key.Limits().CheckValueName(name); err != nil {
		return nil, annotate(err, key, "get-value")
	}
	rt, raw, found, err := key.Query(name)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, notFound(key, name, "get-value")
	}
	kind, data, err := codec.Decode(rt, raw)
	if err != nil {
		return nil, annotate(err, key, "get-value")
	}
	if len(opts.Kinds) > 0 && !slices.Contains(opts.Kinds, kind) {
		return nil, types.Errorf(types.ErrKindTypeMismatch, "value %q under %s is %s, not %s",
			types.DisplayName(name), key.Path(), kind, kindList(opts.Kinds)).WithHost(key.Host()).WithOp("get-value")
	}
	return present(newResult(key, name, kind, rt, data), opts), nil
}

// GetDefault reads the key's unnamed value.
func GetDefault(key *session.Key, opts GetOptions) (*types.Result, error) {
	return Get(key, "", opts)
}

// Encode checks name and data against limits and encodes data as kind. It
// touches no key, so callers can reject bad data before connecting.
func Encode(limits types.Limits, name string, kind types.ValueKind, data any) (types.RegType, []byte, error) {
	if err := limits.CheckValueName(name); err != nil {
		return 0, nil, err
	}
	rt, raw, err := codec.Encode(kind, data)
	if err != nil {
		return 0, nil, err
	}
	if err := limits.CheckDataSize(len(raw)); err != nil {
		return 0, nil, err
	}
	return rt, raw, nil
}

// Set writes data as kind under name, then reads the value back so the
// returned result reflects what the platform stored. Invalid data is
// reported as InvalidArgument ahead of the confirmation check, so an
// unconfirmed call with bad data still fails rather than being declined.
func Set(key *session.Key, name string, kind types.ValueKind, data any, confirmed bool) (*types.Result, error) {
	rt, raw, err := Encode(key.Limits(), name, kind, data)
	if err != nil {
		return nil, annotate(err, key, "set-value")
	}
	if !confirmed {
		return nil, declined(key, "set-value", "set %s value %q under %s", kind, types.DisplayName(name), key.Path())
	}
	if err := key.Write(name, rt, raw); err != nil {
		return nil, err
	}
	return Get(key, name, GetOptions{})
}

// SetDefault writes the key's unnamed value as a plain REG_SZ string.
func SetDefault(key *session.Key, data string, confirmed bool) (*types.Result, error) {
	return Set(key, "", types.KindString, data, confirmed)
}

// Remove deletes name. A missing value fails with ValueNotFound.
func Remove(key *session.Key, name string, confirmed bool) error {
	if !confirmed {
		return declined(key, "remove-value", "remove value %q under %s", types.DisplayName(name), key.Path())
	}
	if err := key.Limits().CheckValueName(name); err != nil {
		return annotate(err, key, "remove-value")
	}
	found, err := key.Delete(name)
	if err != nil {
		return err
	}
	if !found {
		return notFound(key, name, "remove-value")
	}
	return nil
}

// Exists reports whether name is present. A missing value is false, never
// an error.
func Exists(key *session.Key, name string) (bool, error) {
	if err := key.Limits().CheckValueName(name); err != nil {
		return false, annotate(err, key, "test-value")
	}
	_, _, found, err := key.Query(name)
	if err != nil {
		return false, err
	}
	return found, nil
}

// List returns every value whose name matches pattern, in platform order.
// Patterns use '*' for any run of characters and are case-insensitive; the
// default value matches as "(default)". An empty pattern matches everything.
// Values whose bytes do not decode as their reported type are listed as raw
// KindNone data rather than failing the listing.
func List(key *session.Key, pattern string, opts GetOptions) ([]*types.Result, error) {
	names, err := key.ValueNames()
	if err != nil {
		return nil, err
	}
	var out []*types.Result
	for _, name := range names {
		if !Match(pattern, types.DisplayName(name)) {
			continue
		}
		rt, raw, found, err := key.Query(name)
		if err != nil {
			return nil, err
		}
		if !found {
			// removed between enumeration and read
			continue
		}
		kind, data, err := codec.Decode(rt, raw)
		if err != nil {
			kind, data = types.KindNone, raw
		}
		if len(opts.Kinds) > 0 && !slices.Contains(opts.Kinds, kind) {
			continue
		}
		out = append(out, present(newResult(key, name, kind, rt, data), opts))
	}
	return out, nil
}

// ListKeys returns the immediate subkey names matching pattern.
func ListKeys(key *session.Key, pattern string) ([]string, error) {
	names, err := key.SubkeyNames()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if Match(pattern, n) {
			out = append(out, n)
		}
	}
	return out, nil
}

// Match reports whether name matches the wildcard pattern, ignoring case.
// An empty pattern matches everything.
func Match(pattern, name string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}
	return wildcard.Match(strings.ToLower(pattern), strings.ToLower(name))
}

func newResult(key *session.Key, name string, kind types.ValueKind, rt types.RegType, data any) *types.Result {
	return &types.Result{
		ComputerName: key.Host(),
		Hive:         key.Hive(),
		Key:          key.Path(),
		Value:        types.DisplayName(name),
		Data:         data,
		Type:         kind,
		RegType:      rt,
	}
}

// present applies the presentation transforms requested in opts.
func present(r *types.Result, opts GetOptions) *types.Result {
	if opts.Hex {
		if s, ok := codec.FormatHex(r.Data); ok {
			r.Hex = s
		}
	}
	if opts.Expand {
		if s, ok := r.Data.(types.ExpandString); ok {
			lookup := opts.Lookup
			if lookup == nil {
				lookup = func(string) (string, bool) { return "", false }
			}
			r.Expanded = s.Expand(lookup)
		}
	}
	return r
}

func notFound(key *session.Key, name, op string) error {
	return types.Errorf(types.ErrKindValueNotFound, "value %q not found under %s", types.DisplayName(name), key.Path()).
		WithHost(key.Host()).WithOp(op)
}

func declined(key *session.Key, op, format string, args ...any) error {
	return types.Errorf(types.ErrKindDeclined, "not confirmed: "+format, args...).WithHost(key.Host()).WithOp(op)
}

func annotate(err error, key *session.Key, op string) error {
	if te, ok := err.(*types.Error); ok && te.Host == "" {
		return te.WithHost(key.Host()).WithOp(op)
	}
	return err
}

func kindList(kinds []types.ValueKind) string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = k.String()
	}
	return strings.Join(parts, " or ")
}
