// Package session owns the connection lifecycle to one hive on one host.
//
// A Session wraps a transport connection; a Key wraps a subkey handle opened
// through it. Both are exclusively owned by the single logical operation that
// created them and are released with Close, which is idempotent, never fails,
// and also closes any keys still open on the session:
//
//	s, err := session.Open(ctx, t, "srv01", types.LocalMachine, nil)
//	if err != nil {
//	    return err // ConnectionError
//	}
//	defer s.Close()
//
//	k, err := s.OpenKey(`SOFTWARE\Vendor`, types.ReadOnly)
//	if err != nil {
//	    return err // KeyNotFound
//	}
//	defer k.Close()
//
// Using a session or key after Close fails with SessionClosed.
package session
