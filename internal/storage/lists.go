package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/mgm-veiculos/mgm-api-go/internal/domain"
	"github.com/mgm-veiculos/mgm-api-go/internal/port"
)

// LoadList reads the list stored under key. An absent key, malformed JSON or
// a non-array value all yield a copy of fallback; only backend failures are
// returned as errors.
func LoadList[T any](ctx context.Context, kv port.KVStore, key string, fallback []T, logger *zap.Logger) ([]T, error) {
	raw, found, err := kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	if !found || len(bytes.TrimSpace(raw)) == 0 {
		return slices.Clone(fallback), nil
	}

	var list []T
	if err := json.Unmarshal(raw, &list); err != nil || list == nil {
		if logger != nil {
			logger.Warn("stored list unreadable, using fallback",
				zap.String("key", key),
				zap.Error(err),
			)
		}
		return slices.Clone(fallback), nil
	}
	return list, nil
}

// EncodeList serializes list; a nil list is written as [].
func EncodeList[T any](list []T) ([]byte, error) {
	if list == nil {
		list = []T{}
	}
	return json.Marshal(list)
}

// PersistList re-serializes the whole list under key.
func PersistList[T any](ctx context.Context, kv port.KVStore, key string, list []T) error {
	raw, err := EncodeList(list)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}

type storedRates struct {
	Car        *domain.Money `json:"carro"`
	Motorcycle *domain.Money `json:"moto"`
}

// LoadRates reads the commission table. Missing or unreadable fields fall
// back to the defaults individually.
func LoadRates(ctx context.Context, kv port.KVStore, logger *zap.Logger) (domain.CommissionRates, error) {
	rates := domain.DefaultCommissionRates()

	raw, found, err := kv.Get(ctx, KeyCommissionRates)
	if err != nil {
		return rates, fmt.Errorf("load %s: %w", KeyCommissionRates, err)
	}
	if !found {
		return rates, nil
	}

	var stored storedRates
	if err := json.Unmarshal(raw, &stored); err != nil {
		if logger != nil {
			logger.Warn("stored rates unreadable, using defaults", zap.Error(err))
		}
		return rates, nil
	}
	if stored.Car != nil {
		rates.Car = *stored.Car
	}
	if stored.Motorcycle != nil {
		rates.Motorcycle = *stored.Motorcycle
	}
	return rates, nil
}

func encodeRates(r domain.CommissionRates) ([]byte, error) {
	// Rates are stored as JSON numbers.
	return json.Marshal(map[string]json.Number{
		"carro": json.Number(r.Car.String()),
		"moto":  json.Number(r.Motorcycle.String()),
	})
}

// CheckEntry reports whether raw would load under key. Known keys must decode
// into their stored type, so an imported list is never swapped for the
// fallback on the next read. Other keys only need valid JSON.
func CheckEntry(key string, raw []byte) error {
	switch key {
	case KeyForSale, KeySold, KeyArchived:
		return checkList[domain.Vehicle](raw)
	case KeyCommissions:
		return checkList[domain.Commission](raw)
	case KeyPhases:
		return checkList[domain.Phase](raw)
	case KeyClients:
		return checkList[domain.ClientRecord](raw)
	case KeyCommissionRates:
		var stored storedRates
		return json.Unmarshal(raw, &stored)
	}
	if !json.Valid(raw) {
		return errors.New("invalid JSON")
	}
	return nil
}

func checkList[T any](raw []byte) error {
	var list []T
	if err := json.Unmarshal(raw, &list); err != nil {
		return err
	}
	if list == nil {
		return errors.New("not a list")
	}
	return nil
}
