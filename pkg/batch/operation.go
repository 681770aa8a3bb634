package batch

import (
	"fmt"

	"github.com/joshuapare/regremote/pkg/access"
	"github.com/joshuapare/regremote/pkg/session"
	"github.com/joshuapare/regremote/pkg/types"
)

// keyAccess says how the runner opens the operation's key before Invoke.
type keyAccess int

const (
	openRead  keyAccess = iota
	openWrite           // mutating value operations
	openNone            // key-level operations work on the session directly
)

// Operation is one registry action applied to every host of a batch. Build
// one with the constructors in this file.
type Operation struct {
	name     string
	path     string
	open     keyAccess
	mutating bool
	describe string
	validate func(limits types.Limits) error // nil when the input needs no host
	invoke   func(c *call) error
}

// Name is the operation's stable identifier ("get-value", "set-value", ...).
func (op Operation) Name() string { return op.name }

// Path is the key path the operation targets.
func (op Operation) Path() string { return op.path }

// call is what an operation sees while it runs against one host.
type call struct {
	sess      *session.Session
	key       *session.Key // nil for openNone operations
	path      string
	confirmed bool
	passThru  bool
	report    *HostReport
}

func (c *call) emit(r *types.Result) {
	c.report.Results = append(c.report.Results, r)
}

func (c *call) test(value string, exists bool) {
	c.report.Tests = append(c.report.Tests, TestResult{
		ComputerName: c.sess.Host(),
		Hive:         c.sess.Hive(),
		Key:          types.NormalizeKeyPath(c.path),
		Value:        value,
		Exists:       exists,
	})
}

// GetValue reads one value of any kind, or only of opts.Kinds when set.
func GetValue(path, name string, opts access.GetOptions) Operation {
	return Operation{
		name: "get-value",
		path: path,
		open: openRead,
		invoke: func(c *call) error {
			r, err := access.Get(c.key, name, opts)
			if err != nil {
				return err
			}
			c.emit(r)
			return nil
		},
	}
}

// GetDefault reads the key's unnamed value.
func GetDefault(path string, opts access.GetOptions) Operation {
	op := GetValue(path, "", opts)
	op.name = "get-default"
	return op
}

// SetValue writes data as kind under name. The re-read result is collected
// only when Options.PassThru is set.
func SetValue(path, name string, kind types.ValueKind, data any) Operation {
	return Operation{
		name:     "set-value",
		path:     path,
		open:     openWrite,
		mutating: true,
		describe: fmt.Sprintf("Set %s value %q under %s", kind, types.DisplayName(name), path),
		validate: func(limits types.Limits) error {
			_, _, err := access.Encode(limits, name, kind, data)
			return err
		},
		invoke: func(c *call) error {
			r, err := access.Set(c.key, name, kind, data, c.confirmed)
			if err != nil {
				return err
			}
			if c.passThru {
				c.emit(r)
			}
			return nil
		},
	}
}

// SetDefault writes the key's unnamed value as REG_SZ.
func SetDefault(path, data string) Operation {
	return Operation{
		name:     "set-default",
		path:     path,
		open:     openWrite,
		mutating: true,
		describe: fmt.Sprintf("Set default value under %s", path),
		validate: func(limits types.Limits) error {
			_, _, err := access.Encode(limits, "", types.KindString, data)
			return err
		},
		invoke: func(c *call) error {
			r, err := access.SetDefault(c.key, data, c.confirmed)
			if err != nil {
				return err
			}
			if c.passThru {
				c.emit(r)
			}
			return nil
		},
	}
}

// RemoveValue deletes name; a missing value fails the host with
// ValueNotFound.
func RemoveValue(path, name string) Operation {
	return Operation{
		name:     "remove-value",
		path:     path,
		open:     openWrite,
		mutating: true,
		describe: fmt.Sprintf("Remove value %q under %s", types.DisplayName(name), path),
		invoke: func(c *call) error {
			return access.Remove(c.key, name, c.confirmed)
		},
	}
}

// TestValue reports whether name exists. A missing key still fails the
// host with KeyNotFound.
func TestValue(path, name string) Operation {
	return Operation{
		name: "test-value",
		path: path,
		open: openRead,
		invoke: func(c *call) error {
			ok, err := access.Exists(c.key, name)
			if err != nil {
				return err
			}
			c.test(types.DisplayName(name), ok)
			return nil
		},
	}
}

// ListValues reads every value whose name matches pattern.
func ListValues(path, pattern string, opts access.GetOptions) Operation {
	return Operation{
		name: "list-values",
		path: path,
		open: openRead,
		invoke: func(c *call) error {
			rs, err := access.List(c.key, pattern, opts)
			if err != nil {
				return err
			}
			for _, r := range rs {
				c.emit(r)
			}
			return nil
		},
	}
}

// ListKeys reports the subkey names under path matching pattern.
func ListKeys(path, pattern string) Operation {
	return Operation{
		name: "list-keys",
		path: path,
		open: openRead,
		invoke: func(c *call) error {
			names, err := access.ListKeys(c.key, pattern)
			if err != nil {
				return err
			}
			for _, n := range names {
				c.report.Keys = append(c.report.Keys, KeyEntry{
					ComputerName: c.sess.Host(),
					Hive:         c.sess.Hive(),
					Key:          c.key.Path(),
					Name:         n,
				})
			}
			return nil
		},
	}
}

// TestKey reports whether path exists. A missing key is a false answer, not
// a failure.
func TestKey(path string) Operation {
	return Operation{
		name: "test-key",
		path: path,
		open: openNone,
		invoke: func(c *call) error {
			ok, err := c.sess.KeyExists(path)
			if err != nil {
				return err
			}
			c.test("", ok)
			return nil
		},
	}
}

// CreateKey creates path and any missing parents.
func CreateKey(path string) Operation {
	return Operation{
		name:     "create-key",
		path:     path,
		open:     openNone,
		mutating: true,
		describe: fmt.Sprintf("Create key %s", path),
		invoke: func(c *call) error {
			if !c.confirmed {
				return declined(c, "create-key", path)
			}
			return c.sess.CreateKey(path)
		},
	}
}

// RemoveKey deletes path. Without recursive, a key that has subkeys fails
// the host with a WriteError.
func RemoveKey(path string, recursive bool) Operation {
	desc := fmt.Sprintf("Remove key %s", path)
	if recursive {
		desc += " and all subkeys"
	}
	return Operation{
		name:     "remove-key",
		path:     path,
		open:     openNone,
		mutating: true,
		describe: desc,
		invoke: func(c *call) error {
			if !c.confirmed {
				return declined(c, "delete-key", path)
			}
			return c.sess.DeleteKey(path, recursive)
		},
	}
}

func declined(c *call, op, path string) error {
	return types.Errorf(types.ErrKindDeclined, "not confirmed: %s %s", op, path).WithHost(c.sess.Host()).WithOp(op)
}
