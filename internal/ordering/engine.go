package ordering

import (
	"context"
	"errors"
	"fmt"
)

// Store is the row-store contract the ordering operations need.
type Store interface {
	// ListSiblings returns the rows of a partition ordered by position.
	ListSiblings(ctx context.Context, p Partition) ([]Sibling, error)

	// UpdatePosition writes one position. It returns an error wrapping
	// ErrNotFound when the row is gone and ErrConflict when u.Version is
	// positive and stale.
	UpdatePosition(ctx context.Context, kind Kind, u PositionUpdate) error

	// MoveRow changes a row's container reference and position. The write only
	// applies while the row still references from.
	MoveRow(ctx context.Context, kind Kind, id, from, to string, position, version int) error

	// DeleteRow removes one row; ErrNotFound when it does not exist.
	DeleteRow(ctx context.Context, kind Kind, id string) error

	// DeleteRows removes every row of kind whose container reference equals
	// containerID and reports how many were removed.
	DeleteRows(ctx context.Context, kind Kind, containerID string) (int64, error)
}

// Transactor is implemented by stores that can run several writes as one
// atomic unit. fn receives a Store bound to the transaction.
type Transactor interface {
	Atomic(ctx context.Context, fn func(tx Store) error) error
}

// Option configures an Engine.
type Option func(*Engine)

// WithVersionCheck makes reorders and moves carry the row version they read,
// so a concurrent writer causes ErrConflict instead of a silent overwrite.
func WithVersionCheck(on bool) Option {
	return func(e *Engine) { e.versionCheck = on }
}

// WithAtomicBatches runs multi-row writes inside a transaction when the store
// implements Transactor. Without it, writes are issued row by row.
func WithAtomicBatches(on bool) Option {
	return func(e *Engine) { e.atomic = on }
}

// Engine applies position allocation, reordering, container transfer and
// cascade deletion against a Store. It holds no locks: each call is one read
// followed by one or more writes.
type Engine struct {
	store        Store
	versionCheck bool
	atomic       bool
}

// NewEngine creates an Engine over s.
func NewEngine(s Store, opts ...Option) *Engine {
	e := &Engine{store: s, atomic: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// VersionCheck reports whether writes carry the observed row version.
func (e *Engine) VersionCheck() bool { return e.versionCheck }

// AtomicBatches reports whether multi-row writes run in one transaction.
func (e *Engine) AtomicBatches() bool { return e.atomic }

// AppendPosition returns the position a new row in p should take: explicit
// when given, otherwise after every existing sibling. No sibling read happens
// when explicit is set.
func (e *Engine) AppendPosition(ctx context.Context, p Partition, explicit *int) (int, error) {
	if explicit != nil {
		return Allocate(nil, explicit)
	}
	sibs, err := e.store.ListSiblings(ctx, p)
	if err != nil {
		return 0, Transient(fmt.Sprintf("listing %s siblings", p.Kind), err)
	}
	return Allocate(sibs, nil)
}

// Reorder rewrites the positions of p's rows to their index in order.
// order is validated against the current membership before anything is
// written.
func (e *Engine) Reorder(ctx context.Context, p Partition, order []string) error {
	current, err := e.store.ListSiblings(ctx, p)
	if err != nil {
		return Transient(fmt.Sprintf("listing %s siblings", p.Kind), err)
	}

	updates, err := PlanReorder(current, order, e.versionCheck)
	if err != nil {
		return err
	}

	if tx, ok := e.store.(Transactor); ok && e.atomic {
		err := tx.Atomic(ctx, func(s Store) error {
			return applyPositions(ctx, s, p.Kind, updates)
		})
		// A rolled back transaction applied nothing.
		var partial *PartialWriteError
		if errors.As(err, &partial) {
			return partial.Err
		}
		return err
	}
	return applyPositions(ctx, e.store, p.Kind, updates)
}

// applyPositions writes updates in order and stops at the first failure.
func applyPositions(ctx context.Context, s Store, kind Kind, updates []PositionUpdate) error {
	applied := make([]string, 0, len(updates))
	for _, u := range updates {
		if err := s.UpdatePosition(ctx, kind, u); err != nil {
			err = Transient(fmt.Sprintf("updating %s %s position", kind, u.ID), err)
			if len(applied) == 0 {
				return err
			}
			return &PartialWriteError{Applied: applied, Failed: u.ID, Err: err}
		}
		applied = append(applied, u.ID)
	}
	return nil
}

// Transfer describes moving one entity between containers.
type Transfer struct {
	Kind    Kind
	ID      string
	OwnerID string
	From    string
	To      string

	// Version is the entity version observed by the caller. It is only sent
	// to the store when version checking is on.
	Version int
}

// Transfer moves an entity to the end of the active partition of its target
// container and returns the new position. Siblings left behind in the source
// container keep their positions.
func (e *Engine) Transfer(ctx context.Context, t Transfer) (int, error) {
	if t.From == t.To {
		return 0, Invalid("target", "%s is already in %s", t.ID, t.To)
	}

	target := Partition{Kind: t.Kind, OwnerID: t.OwnerID, ContainerID: t.To, ActiveOnly: true}
	sibs, err := e.store.ListSiblings(ctx, target)
	if err != nil {
		return 0, Transient(fmt.Sprintf("listing %s siblings", t.Kind), err)
	}
	pos := NextPosition(sibs)

	version := 0
	if e.versionCheck {
		version = t.Version
	}
	if err := e.store.MoveRow(ctx, t.Kind, t.ID, t.From, t.To, pos, version); err != nil {
		return 0, Transient(fmt.Sprintf("moving %s %s", t.Kind, t.ID), err)
	}
	return pos, nil
}

// CascadeDelete removes a container and every member that references it.
// Members go first so that a failure never leaves a visible container with
// dangling members. Deleting a container that no longer exists succeeds.
func (e *Engine) CascadeDelete(ctx context.Context, container, member Kind, containerID string) error {
	if tx, ok := e.store.(Transactor); ok && e.atomic {
		err := tx.Atomic(ctx, func(s Store) error {
			return cascade(ctx, s, container, member, containerID)
		})
		var partial *CascadeError
		if errors.As(err, &partial) {
			return partial.Err
		}
		return err
	}
	return cascade(ctx, e.store, container, member, containerID)
}

func cascade(ctx context.Context, s Store, container, member Kind, containerID string) error {
	n, err := s.DeleteRows(ctx, member, containerID)
	if err != nil {
		return Transient(fmt.Sprintf("deleting %s rows of %s", member, containerID), err)
	}

	err = s.DeleteRow(ctx, container, containerID)
	if err == nil || errors.Is(err, ErrNotFound) {
		return nil
	}
	return &CascadeError{
		ContainerID:    containerID,
		MembersDeleted: n,
		Err:            Transient(fmt.Sprintf("deleting %s %s", container, containerID), err),
	}
}
