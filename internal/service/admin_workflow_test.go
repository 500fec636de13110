package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pet-adoption-portal/internal/event"
	"pet-adoption-portal/internal/model"
	"pet-adoption-portal/pkg/apierror"
)

type recordingAnimalAPI struct {
	mu      sync.Mutex
	animals []model.Animal
	calls   []string
	updates []model.UpdateAnimalRequest

	listErr   error
	createErr error
	updateErr error
	deleteErr error

	// block, when set, holds CreateAnimal until it is closed.
	block   chan struct{}
	entered chan struct{}
}

func (a *recordingAnimalAPI) record(call string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, call)
}

func (a *recordingAnimalAPI) count(prefix string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, call := range a.calls {
		if call == prefix {
			n++
		}
	}
	return n
}

func (a *recordingAnimalAPI) total() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

func (a *recordingAnimalAPI) ListAnimals(context.Context) ([]model.Animal, error) {
	a.record("list")
	if a.listErr != nil {
		return nil, a.listErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]model.Animal(nil), a.animals...), nil
}

func (a *recordingAnimalAPI) CreateAnimal(_ context.Context, req model.CreateAnimalRequest) (*model.Animal, error) {
	a.record("create")
	if a.entered != nil {
		close(a.entered)
	}
	if a.block != nil {
		<-a.block
	}
	if a.createErr != nil {
		return nil, a.createErr
	}
	animal := model.Animal{ID: req.Name, Name: req.Name, Age: req.Age}
	a.mu.Lock()
	a.animals = append(a.animals, animal)
	a.mu.Unlock()
	return &animal, nil
}

func (a *recordingAnimalAPI) UpdateAnimal(_ context.Context, id string, req model.UpdateAnimalRequest) (*model.Animal, error) {
	a.record("update")
	a.mu.Lock()
	a.updates = append(a.updates, req)
	a.mu.Unlock()
	if a.updateErr != nil {
		return nil, a.updateErr
	}
	return &model.Animal{ID: id}, nil
}

func (a *recordingAnimalAPI) DeleteAnimal(_ context.Context, id string) error {
	a.record("delete")
	if a.deleteErr != nil {
		return a.deleteErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.animals {
		if a.animals[i].ID == id {
			a.animals = append(a.animals[:i], a.animals[i+1:]...)
			break
		}
	}
	return nil
}

func seededAPI() *recordingAnimalAPI {
	return &recordingAnimalAPI{animals: []model.Animal{
		{ID: "1", Name: "Rex"},
		{ID: "2", Name: "Mia", Adopted: true},
		{ID: "3", Name: "Bob"},
	}}
}

func TestAdminWorkflowLoad(t *testing.T) {
	t.Parallel()

	api := seededAPI()
	wf := NewAdminWorkflow(api)
	require.Equal(t, ModeList, wf.Mode())

	require.NoError(t, wf.Load(context.Background()))
	view := wf.View()
	require.Equal(t, 3, view.Total())
	require.Len(t, view.Available, 2)
	require.Len(t, view.Adopted, 1)
	require.Equal(t, 1, api.count("list"))

	api.listErr = errors.New("offline")
	require.Error(t, wf.Load(context.Background()))
	view = wf.View()
	require.Equal(t, 3, view.Total())
	require.Equal(t, "error fetching animals", view.ListError)
}

func TestAdminWorkflowCreate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("success returns to the list with a fresh load", func(t *testing.T) {
		api := seededAPI()
		wf := NewAdminWorkflow(api)

		require.NoError(t, wf.BeginCreate())
		require.Equal(t, ModeCreate, wf.Mode())

		form := NewAnimalForm()
		form.Name = "Thor"
		form.Age = ""
		require.NoError(t, wf.Submit(ctx, form))

		require.Equal(t, ModeList, wf.Mode())
		require.Equal(t, 1, api.count("create"))
		require.Equal(t, 1, api.count("list"))

		created, ok := wf.Find("Thor")
		require.True(t, ok)
		require.Equal(t, 1, created.Age)
	})

	t.Run("failure stays on the form with the server message", func(t *testing.T) {
		api := seededAPI()
		api.createErr = apierror.New(apierror.CodeRequestFailed, "name already used", "", http.StatusConflict)
		wf := NewAdminWorkflow(api)

		require.NoError(t, wf.BeginCreate())
		err := wf.Submit(ctx, AnimalForm{Name: "Rex"})
		require.ErrorIs(t, err, apierror.ErrRequestFailed)

		require.Equal(t, ModeCreate, wf.Mode())
		require.Equal(t, "name already used", wf.View().FormError)
		require.Zero(t, api.count("list"))
	})

	t.Run("submit outside a form is rejected", func(t *testing.T) {
		api := seededAPI()
		wf := NewAdminWorkflow(api)

		require.ErrorIs(t, wf.Submit(ctx, AnimalForm{}), ErrNotEditing)
		require.Zero(t, api.total())
	})
}

func TestAdminWorkflowEdit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	api := seededAPI()
	wf := NewAdminWorkflow(api)
	require.NoError(t, wf.Load(ctx))

	rex, ok := wf.Find("1")
	require.True(t, ok)
	require.NoError(t, wf.BeginEdit(rex))
	require.Equal(t, ModeEdit, wf.Mode())
	require.Equal(t, "1", wf.View().Selected.ID)

	form := AnimalFormFromAnimal(rex)
	form.Name = "Renamed"
	form.Adopted = true
	require.NoError(t, wf.Submit(ctx, form))

	require.Len(t, api.updates, 1)
	require.True(t, *api.updates[0].Adopted)
	require.Equal(t, ModeList, wf.Mode())
	require.Nil(t, wf.View().Selected)

	api.updateErr = errors.New("timeout")
	require.NoError(t, wf.BeginEdit(rex))
	require.Error(t, wf.Submit(ctx, form))
	require.Equal(t, ModeEdit, wf.Mode())
	require.Equal(t, "error updating animal", wf.View().FormError)

	require.NoError(t, wf.Cancel())
	require.Equal(t, ModeList, wf.Mode())
	require.Empty(t, wf.View().FormError)
}

func TestAdminWorkflowDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("confirm deletes once and reloads once", func(t *testing.T) {
		api := seededAPI()
		wf := NewAdminWorkflow(api)

		require.NoError(t, wf.RequestDelete(model.Animal{ID: "2", Name: "Mia"}))
		require.Equal(t, "2", wf.View().PendingDelete.ID)

		require.NoError(t, wf.ConfirmDelete(ctx))
		require.Equal(t, 1, api.count("delete"))
		require.Equal(t, 1, api.count("list"))
		require.Nil(t, wf.View().PendingDelete)
		require.Equal(t, 2, wf.View().Total())
	})

	t.Run("decline makes no calls", func(t *testing.T) {
		api := seededAPI()
		wf := NewAdminWorkflow(api)

		require.NoError(t, wf.RequestDelete(model.Animal{ID: "1"}))
		require.NoError(t, wf.DeclineDelete())
		require.Nil(t, wf.View().PendingDelete)
		require.Zero(t, api.total())

		require.ErrorIs(t, wf.ConfirmDelete(ctx), ErrNoPendingDelete)
		require.Zero(t, api.total())
	})

	t.Run("failure keeps the prompt open", func(t *testing.T) {
		api := seededAPI()
		api.deleteErr = apierror.New(apierror.CodeRequestFailed, "animal has an adoption in progress", "", http.StatusConflict)
		wf := NewAdminWorkflow(api)

		require.NoError(t, wf.RequestDelete(model.Animal{ID: "1"}))
		require.Error(t, wf.ConfirmDelete(ctx))

		view := wf.View()
		require.Equal(t, "1", view.PendingDelete.ID)
		require.Equal(t, "animal has an adoption in progress", view.DeleteError)
		require.Zero(t, api.count("list"))
	})

	t.Run("at most one pending target", func(t *testing.T) {
		wf := NewAdminWorkflow(seededAPI())

		require.NoError(t, wf.RequestDelete(model.Animal{ID: "1"}))
		require.NoError(t, wf.RequestDelete(model.Animal{ID: "3"}))
		require.Equal(t, "3", wf.View().PendingDelete.ID)
	})
}

func TestAdminWorkflowRejectsConcurrentMutation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	api := seededAPI()
	api.block = make(chan struct{})
	api.entered = make(chan struct{})
	wf := NewAdminWorkflow(api)
	require.NoError(t, wf.BeginCreate())

	done := make(chan error, 1)
	go func() {
		done <- wf.Submit(ctx, AnimalForm{Name: "Slow"})
	}()

	select {
	case <-api.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("create was never called")
	}

	require.True(t, wf.Busy())
	require.ErrorIs(t, wf.Submit(ctx, AnimalForm{Name: "Second"}), ErrBusy)
	require.ErrorIs(t, wf.ConfirmDelete(ctx), ErrBusy)
	require.ErrorIs(t, wf.Cancel(), ErrBusy)
	require.ErrorIs(t, wf.RequestDelete(model.Animal{ID: "1"}), ErrBusy)

	close(api.block)
	require.NoError(t, <-done)
	require.False(t, wf.Busy())
	require.Equal(t, 1, api.count("create"))
}

func TestWorkflowRegistry(t *testing.T) {
	t.Parallel()

	registry := NewWorkflowRegistry()
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	registry.now = func() time.Time { return base }

	first := registry.Get("s1", seededAPI())
	require.Same(t, first, registry.Get("s1", seededAPI()))
	require.NotSame(t, first, registry.Get("s2", seededAPI()))
	require.Equal(t, 2, registry.Len())

	registry.now = func() time.Time { return base.Add(time.Hour) }
	registry.Get("s2", seededAPI())

	require.Equal(t, 1, registry.Prune(30*time.Minute))
	require.Equal(t, 1, registry.Len())

	registry.Forget("s2")
	require.Zero(t, registry.Len())
}

func TestWorkflowPublishesSuccessfulChanges(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	bus := event.NewBus()
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	api := seededAPI()
	wf := NewWorkflowRegistry(WithEvents(bus)).Get("s1", api)
	wf.SetActor("admin-7")
	require.NoError(t, wf.Load(ctx))

	require.NoError(t, wf.BeginCreate())
	require.NoError(t, wf.Submit(ctx, AnimalForm{Name: "Luna", Age: "2"}))

	rex, ok := wf.Find("1")
	require.True(t, ok)
	require.NoError(t, wf.RequestDelete(rex))
	api.deleteErr = errors.New("boom")
	require.Error(t, wf.ConfirmDelete(ctx))
	api.deleteErr = nil
	require.NoError(t, wf.ConfirmDelete(ctx))

	created := <-events
	require.Equal(t, event.TypeAnimalCreated, created.Type)
	require.Equal(t, "admin-7", created.ActorID)
	require.Equal(t, "Luna", created.Payload.(model.Animal).Name)

	deleted := <-events
	require.Equal(t, event.TypeAnimalDeleted, deleted.Type)
	require.Equal(t, "1", deleted.Payload.(model.Animal).ID)
	require.Empty(t, events)
}
