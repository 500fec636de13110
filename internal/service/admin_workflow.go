package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"pet-adoption-portal/internal/event"
	"pet-adoption-portal/internal/model"
	"pet-adoption-portal/pkg/apierror"
)

var (
	ErrBusy            = errors.New("another change is still in progress")
	ErrNotEditing      = errors.New("no create or edit form is open")
	ErrNoPendingDelete = errors.New("no deletion awaiting confirmation")
)

const (
	msgCreateFailed = "error creating animal"
	msgUpdateFailed = "error updating animal"
	msgDeleteFailed = "error deleting animal"
	msgListFailed   = "error fetching animals"
)

// AnimalAPI is the slice of the remote API the admin panel drives.
type AnimalAPI interface {
	ListAnimals(ctx context.Context) ([]model.Animal, error)
	CreateAnimal(ctx context.Context, req model.CreateAnimalRequest) (*model.Animal, error)
	UpdateAnimal(ctx context.Context, id string, req model.UpdateAnimalRequest) (*model.Animal, error)
	DeleteAnimal(ctx context.Context, id string) error
}

type Mode string

const (
	ModeList   Mode = "list"
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// AdminView is a point-in-time copy of the workflow for rendering.
type AdminView struct {
	Mode          Mode
	Selected      *model.Animal
	PendingDelete *model.Animal
	Animals       []model.Animal
	Available     []model.Animal
	Adopted       []model.Animal
	ListError     string
	FormError     string
	DeleteError   string
}

func (v AdminView) Total() int {
	return len(v.Animals)
}

// AdminWorkflow is the list/create/edit state machine of the admin panel plus
// its delete confirmation. At most one mutation runs at a time.
type AdminWorkflow struct {
	busy atomic.Bool

	mu            sync.Mutex
	api           AnimalAPI
	events        event.Bus
	actor         string
	mode          Mode
	selected      *model.Animal
	pendingDelete *model.Animal
	animals       []model.Animal
	available     []model.Animal
	adopted       []model.Animal
	listErr       string
	formErr       string
	deleteErr     string
}

func NewAdminWorkflow(api AnimalAPI) *AdminWorkflow {
	return &AdminWorkflow{
		api:       api,
		mode:      ModeList,
		available: []model.Animal{},
		adopted:   []model.Animal{},
	}
}

func (w *AdminWorkflow) setAPI(api AnimalAPI) {
	w.mu.Lock()
	w.api = api
	w.mu.Unlock()
}

// SetActor names the administrator credited in published change events.
func (w *AdminWorkflow) SetActor(userID string) {
	w.mu.Lock()
	w.actor = userID
	w.mu.Unlock()
}

func (w *AdminWorkflow) publish(typ event.Type, animal model.Animal) {
	w.mu.Lock()
	bus, actor := w.events, w.actor
	w.mu.Unlock()

	if bus != nil {
		bus.Publish(event.New(typ, actor, animal))
	}
}

func (w *AdminWorkflow) client() AnimalAPI {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.api
}

// Load fetches the full animal set once and partitions it. On failure the
// previous list is kept and the error is recorded for display.
func (w *AdminWorkflow) Load(ctx context.Context) error {
	animals, err := w.client().ListAnimals(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()

	if err != nil {
		w.listErr = apierror.MessageOf(err, msgListFailed)
		slog.Warn("admin list load failed", "error", err)
		return err
	}

	w.animals = animals
	w.available, w.adopted = model.PartitionByAdoption(animals)
	w.listErr = ""
	return nil
}

// Reset returns to the list with no selection, prompt or messages.
func (w *AdminWorkflow) Reset() error {
	if w.busy.Load() {
		return ErrBusy
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.mode = ModeList
	w.selected = nil
	w.pendingDelete = nil
	w.formErr = ""
	w.deleteErr = ""
	return nil
}

func (w *AdminWorkflow) BeginCreate() error {
	if w.busy.Load() {
		return ErrBusy
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.mode = ModeCreate
	w.selected = nil
	w.formErr = ""
	return nil
}

func (w *AdminWorkflow) BeginEdit(animal model.Animal) error {
	if w.busy.Load() {
		return ErrBusy
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.mode = ModeEdit
	w.selected = &animal
	w.formErr = ""
	return nil
}

// Cancel leaves the form without any remote call.
func (w *AdminWorkflow) Cancel() error {
	if w.busy.Load() {
		return ErrBusy
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.mode = ModeList
	w.selected = nil
	w.formErr = ""
	return nil
}

// Submit creates or updates according to the current mode. Success reloads
// the list and returns to it; failure keeps the form open with the message.
func (w *AdminWorkflow) Submit(ctx context.Context, form AnimalForm) error {
	if !w.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer w.busy.Store(false)

	w.mu.Lock()
	mode, selected, api := w.mode, w.selected, w.api
	w.mu.Unlock()

	var (
		saved    *model.Animal
		err      error
		fallback string
		change   event.Type
	)
	switch mode {
	case ModeCreate:
		fallback, change = msgCreateFailed, event.TypeAnimalCreated
		saved, err = api.CreateAnimal(ctx, form.CreateRequest())
	case ModeEdit:
		fallback, change = msgUpdateFailed, event.TypeAnimalUpdated
		saved, err = api.UpdateAnimal(ctx, selected.ID, form.UpdateRequest())
	default:
		return ErrNotEditing
	}

	if err != nil {
		w.mu.Lock()
		w.formErr = apierror.MessageOf(err, fallback)
		w.mu.Unlock()
		return err
	}

	w.mu.Lock()
	w.mode = ModeList
	w.selected = nil
	w.formErr = ""
	w.mu.Unlock()

	if saved != nil {
		w.publish(change, *saved)
	}
	_ = w.Load(ctx)
	return nil
}

// RequestDelete opens the confirmation prompt for animal, replacing any
// earlier unconfirmed target.
func (w *AdminWorkflow) RequestDelete(animal model.Animal) error {
	if w.busy.Load() {
		return ErrBusy
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pendingDelete = &animal
	w.deleteErr = ""
	return nil
}

// DeclineDelete closes the prompt without any remote call.
func (w *AdminWorkflow) DeclineDelete() error {
	if w.busy.Load() {
		return ErrBusy
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pendingDelete = nil
	w.deleteErr = ""
	return nil
}

// ConfirmDelete removes the pending target, closes the prompt and reloads the
// list. On failure the prompt stays open with the message.
func (w *AdminWorkflow) ConfirmDelete(ctx context.Context) error {
	if !w.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer w.busy.Store(false)

	w.mu.Lock()
	target, api := w.pendingDelete, w.api
	w.mu.Unlock()
	if target == nil {
		return ErrNoPendingDelete
	}

	if err := api.DeleteAnimal(ctx, target.ID); err != nil {
		w.mu.Lock()
		w.deleteErr = apierror.MessageOf(err, msgDeleteFailed)
		w.mu.Unlock()
		return err
	}

	w.mu.Lock()
	w.pendingDelete = nil
	w.deleteErr = ""
	w.mu.Unlock()

	w.publish(event.TypeAnimalDeleted, *target)
	_ = w.Load(ctx)
	return nil
}

func (w *AdminWorkflow) Mode() Mode {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mode
}

func (w *AdminWorkflow) Busy() bool {
	return w.busy.Load()
}

// Find looks id up in the last loaded list.
func (w *AdminWorkflow) Find(id string) (model.Animal, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return model.FindAnimal(w.animals, id)
}

func (w *AdminWorkflow) View() AdminView {
	w.mu.Lock()
	defer w.mu.Unlock()

	view := AdminView{
		Mode:        w.mode,
		Animals:     append([]model.Animal(nil), w.animals...),
		Available:   append([]model.Animal{}, w.available...),
		Adopted:     append([]model.Animal{}, w.adopted...),
		ListError:   w.listErr,
		FormError:   w.formErr,
		DeleteError: w.deleteErr,
	}
	if w.selected != nil {
		selected := *w.selected
		view.Selected = &selected
	}
	if w.pendingDelete != nil {
		pending := *w.pendingDelete
		view.PendingDelete = &pending
	}
	return view
}
