package guard

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-dev/inkwell/internal/session"
)

func TestDecide_Table(t *testing.T) {
	routes := session.DefaultRoutes
	user := &session.Claims{UserID: "u1", Username: "alice"}

	tests := []struct {
		name   string
		state  session.State
		policy Policy
		want   Decision
	}{
		{"loading protected", session.State{Loading: true}, Protected, Decision{Outcome: Defer}},
		{"loading restricted", session.State{Loading: true}, PublicOnly, Decision{Outcome: Defer}},
		{"anon protected", session.State{}, Protected, Decision{Outcome: Redirect, Location: "/login"}},
		{"anon restricted but not public", session.State{}, Policy{Restricted: true}, Decision{Outcome: Redirect, Location: "/login"}},
		{"anon public", session.State{}, Open, Decision{Outcome: Render}},
		{"anon public restricted", session.State{}, PublicOnly, Decision{Outcome: Render}},
		{"authed restricted", session.State{IsAuthenticated: true, User: user}, PublicOnly, Decision{Outcome: Redirect, Location: "/dashboard"}},
		{"authed restricted private", session.State{IsAuthenticated: true, User: user}, Policy{Restricted: true}, Decision{Outcome: Redirect, Location: "/dashboard"}},
		{"authed protected", session.State{IsAuthenticated: true, User: user}, Protected, Decision{Outcome: Render}},
		{"authed public", session.State{IsAuthenticated: true, User: user}, Open, Decision{Outcome: Render}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Decide(tt.state, tt.policy, routes))
		})
	}
}

func TestOutcome_String(t *testing.T) {
	require.Equal(t, "defer", Defer.String())
	require.Equal(t, "render", Render.String())
	require.Equal(t, "redirect", Redirect.String())
	require.Equal(t, "unknown", Outcome(42).String())
}

func validToken(t *testing.T) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, session.Claims{
		UserID:   "u1",
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func TestGuard_AfterLogin(t *testing.T) {
	store := session.New(session.NewMemoryStore())
	store.Initialize(context.Background())
	g := New(store)

	_, err := store.Login(validToken(t))
	require.NoError(t, err)

	require.Equal(t, Decision{Outcome: Redirect, Location: "/dashboard"}, g.Check(PublicOnly))
	require.Equal(t, Decision{Outcome: Render}, g.Check(Protected))
}

func TestGuard_EvaluateReturnsSnapshot(t *testing.T) {
	store := session.New(session.NewMemoryStore())
	store.Initialize(context.Background())
	g := New(store)

	_, err := store.Login(validToken(t))
	require.NoError(t, err)

	state, d := g.Evaluate(Protected)
	require.Equal(t, Decision{Outcome: Render}, d)
	require.True(t, state.IsAuthenticated)
	require.NotNil(t, state.User)

	store.Logout()

	// The snapshot is a copy and does not follow the store
	require.True(t, state.IsAuthenticated)
	require.NotNil(t, state.User)
}

func TestGuard_NoStoredToken(t *testing.T) {
	store := session.New(session.NewMemoryStore())
	g := New(store)

	require.Equal(t, Decision{Outcome: Defer}, g.Check(Protected))

	store.Initialize(context.Background())

	require.Equal(t, Decision{Outcome: Redirect, Location: "/login"}, g.Check(Protected))
	require.Equal(t, Decision{Outcome: Render}, g.Check(PublicOnly))
}

func TestGuard_WaitBlocksUntilReady(t *testing.T) {
	tokens := session.NewMemoryStore()
	require.NoError(t, tokens.Save(validToken(t)))
	store := session.New(tokens)
	g := New(store)

	done := make(chan Decision, 1)
	go func() { done <- g.Wait(context.Background(), Protected) }()

	select {
	case <-done:
		t.Fatal("Wait returned before the session was ready")
	case <-time.After(20 * time.Millisecond):
	}

	store.Initialize(context.Background())

	select {
	case d := <-done:
		require.Equal(t, Decision{Outcome: Render}, d)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Initialize")
	}
}

func TestGuard_WaitCancelled(t *testing.T) {
	g := New(session.New(session.NewMemoryStore()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Equal(t, Decision{Outcome: Defer}, g.Wait(ctx, Protected))
}
