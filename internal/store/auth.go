package store

import (
	"context"

	"expensync/internal/core"
	"expensync/internal/gateway"
	"expensync/internal/log"
)

// Login authenticates, persists the returned user as the session and loads
// that user's data.
func (s *Store) Login(ctx context.Context, creds core.Credentials) error {
	if err := creds.Validate(); err != nil {
		return s.reject(OpLogin, KindUser, err)
	}
	return s.authenticate(ctx, OpLogin, func() (core.User, error) {
		return s.gw.Login(ctx, creds)
	})
}

// Signup registers a new account and signs it in.
func (s *Store) Signup(ctx context.Context, p core.Profile) error {
	if err := p.Validate(); err != nil {
		return s.reject(OpSignup, KindUser, err)
	}
	return s.authenticate(ctx, OpSignup, func() (core.User, error) {
		return s.gw.Signup(ctx, p)
	})
}

func (s *Store) authenticate(ctx context.Context, op string, call func() (core.User, error)) error {
	req := s.begin(op, false, KindUser)
	var u core.User
	err := invoke(op, func() (err error) {
		u, err = call()
		return err
	})
	if err == nil {
		if saveErr := s.session.Save(u); saveErr != nil {
			err = saveErr
		}
	}
	if err := s.settle(req, err, nil); err != nil {
		return err
	}
	s.logger.Info("Signed in", log.FieldOperation, op, log.FieldUserID, u.ID)
	return s.FetchInitialData(ctx)
}

// Logout clears the session and every cached resource.
func (s *Store) Logout() error {
	prev := s.res.User()
	if err := s.session.Clear(); err != nil {
		return s.reject(OpLogout, KindUser, err)
	}
	s.resetTo(core.Anonymous())
	s.ClearError()
	if inv, ok := s.gw.(gateway.Invalidator); ok && !prev.IsAnonymous() {
		inv.Invalidate(prev.ID)
	}
	s.publish([]Change{{Kind: KindUser, Op: OpLogout, Phase: Settled}})
	s.logger.Info("Signed out", log.FieldUserID, prev.ID)
	return nil
}

// FetchUser refreshes the cached profile. The result is applied only when it
// belongs to the session user.
func (s *Store) FetchUser(ctx context.Context) error {
	current := s.identity()
	if current.IsAnonymous() {
		return nil
	}

	req := s.begin(OpFetchUser, true, KindUser)
	var u core.User
	err := invoke("get user", func() (err error) {
		u, err = s.gw.GetUser(ctx)
		return err
	})
	if err == nil && u.ID != current.ID {
		s.logger.Debug("Ignoring profile of another user", log.FieldUserID, u.ID)
		return s.settle(req, nil, nil)
	}
	if err == nil {
		if saveErr := s.session.Save(u); saveErr != nil {
			s.logger.Warn("Failed to persist profile", log.FieldUserID, u.ID, log.FieldError, saveErr)
		}
	}
	return s.settle(req, err, func() {
		s.res.SetUser(u)
	})
}
