package collectible

import (
	"errors"
	"flash-alliance/internal/apperr"
	"flash-alliance/internal/model"
	"sort"

	"github.com/sasha-s/go-deadlock"
)

var ErrUnknownCollection = apperr.New(apperr.KindValidation, "collectible: unknown collection")

// Directory resolves collection addresses to registries.
type Directory struct {
	mutex       deadlock.RWMutex
	collections map[model.Address]*Registry
}

func NewDirectory() *Directory {
	return &Directory{collections: make(map[model.Address]*Registry)}
}

func (d *Directory) Register(registry *Registry) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if _, ok := d.collections[registry.Address()]; ok {
		return apperr.Wrap(apperr.KindValidation, "collectible: collection already registered", errors.New(registry.Symbol()))
	}
	d.collections[registry.Address()] = registry
	return nil
}

func (d *Directory) Get(collection model.Address) (*Registry, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	registry, ok := d.collections[collection]
	if !ok {
		return nil, ErrUnknownCollection
	}
	return registry, nil
}

func (d *Directory) Collections() []*Registry {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	out := make([]*Registry, 0, len(d.collections))
	for _, registry := range d.collections {
		out = append(out, registry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol() < out[j].Symbol() })
	return out
}
