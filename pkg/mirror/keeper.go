package mirror

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// IdentityStore persists the identity across restarts.
type IdentityStore interface {
	Load() (Identity, error)
	Save(id Identity) error
}

// NewKeeper loads the last known identity from store. A non-zero initial
// identity, e.g. from the config file, wins over the stored one.
func NewKeeper(pub *Publisher, store IdentityStore, initial Identity, logger *zap.Logger) (*Keeper, error) {
	k := &Keeper{
		pub:   pub,
		store: store,
		log:   logger.With(zap.String("via", "keeper")),
	}

	if !initial.IsZero() {
		k.id = initial
	} else if store != nil {
		id, err := store.Load()
		if err != nil {
			return nil, fmt.Errorf("load identity failed: %w", err)
		}
		k.id = id
	}

	k.log.With(zap.Stringer("identity", k.id), zap.Bool("ready", k.id.Ready())).Info("identity loaded")
	return k, nil
}

// Keeper owns the mirror identity: it is the single place that reads and
// replaces it, and it runs creations and updates one at a time.
type Keeper struct {
	sync.Mutex
	pub   *Publisher
	store IdentityStore
	id    Identity
	log   *zap.Logger
}

func (k *Keeper) Identity() Identity {
	k.Lock()
	defer k.Unlock()
	return k.id
}

func (k *Keeper) Publisher() *Publisher {
	return k.pub
}

// Create posts a new mirror into channelID and makes it current. The
// previous identity, if any, is forgotten.
func (k *Keeper) Create(ctx context.Context, channelID uint64) (Identity, error) {
	k.Lock()
	defer k.Unlock()

	id, err := k.pub.Create(ctx, channelID)
	if err != nil {
		return Identity{}, err
	}

	k.id = id
	if err := k.save(); err != nil {
		return id, err
	}

	return id, nil
}

// Update publishes buf onto the current mirror. It returns false when no
// mirror has been created yet.
func (k *Keeper) Update(ctx context.Context, buf []byte) (bool, error) {
	k.Lock()
	defer k.Unlock()

	if !k.id.Ready() {
		return false, nil
	}

	return true, k.pub.Update(ctx, k.id, buf)
}

// Clear drops the identity, typically after a stale mirror was reported.
func (k *Keeper) Clear() error {
	k.Lock()
	defer k.Unlock()

	k.id = Identity{}
	return k.save()
}

func (k *Keeper) save() error {
	if k.store == nil {
		return nil
	}

	if err := k.store.Save(k.id); err != nil {
		return fmt.Errorf("save identity failed: %w", err)
	}

	k.log.With(zap.Stringer("identity", k.id)).Debug("identity saved")
	return nil
}
