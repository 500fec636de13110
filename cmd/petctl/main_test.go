package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pet-adoption-portal/internal/apiclient"
	"pet-adoption-portal/internal/apitest"
	"pet-adoption-portal/internal/model"
	"pet-adoption-portal/internal/repository"
	"pet-adoption-portal/internal/session"
)

func newTestCLI(t *testing.T) (*cli, *apitest.Server, *bytes.Buffer) {
	t.Helper()

	fake := apitest.New(t)
	client, err := apiclient.New(apiclient.Config{BaseURL: fake.URL(), Timeout: 5 * time.Second})
	require.NoError(t, err)

	var out bytes.Buffer
	tokens := session.NewScoped(repository.NewMemoryTokenRepository(), profileID)
	return newCLI(client, tokens, &out), fake, &out
}

func TestCLILoginWhoamiLogout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, fake, out := newTestCLI(t)
	fake.SeedUser("Ana", "ana@example.com", "pw123", model.RoleAdmin)

	require.Error(t, c.run(ctx, options{command: "whoami"}))

	require.NoError(t, c.run(ctx, options{command: "login", email: "ana@example.com", password: "pw123"}))
	require.Contains(t, out.String(), "logged in")

	out.Reset()
	require.NoError(t, c.run(ctx, options{command: "whoami"}))
	require.Equal(t, "Ana <ana@example.com> role=Admin\n", out.String())

	require.NoError(t, c.run(ctx, options{command: "logout"}))
	require.False(t, c.tokens.IsAuthenticated(ctx))
}

func TestCLIAnimals(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, fake, out := newTestCLI(t)
	fake.SeedAnimal(model.Animal{Name: "Rex"})
	fake.SeedAnimal(model.Animal{Name: "Mia", Adopted: true})

	require.NoError(t, c.run(ctx, options{command: "animals", status: "adopted"}))
	require.Contains(t, out.String(), "Mia")
	require.NotContains(t, out.String(), "Rex")

	require.ErrorIs(t, c.run(ctx, options{command: "animals", status: "lost"}), model.ErrInvalidInput)
	require.Error(t, c.run(ctx, options{command: "fly"}))
	require.Error(t, c.run(ctx, options{}))
}
