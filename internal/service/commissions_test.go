package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgm-veiculos/mgm-api-go/internal/domain"
	"github.com/mgm-veiculos/mgm-api-go/internal/storage"
)

func TestCommissionLifecycle(t *testing.T) {
	f := newFixture(t, storage.EmptySeed())

	car, err := f.commissions.AddCommission(ctx, &domain.CommissionDraft{
		Type: domain.TypeCar, Client: "Joana", Vehicle: "Fiat Mobi", Plate: "AAA-1111",
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-01-15", car.Date)
	assert.Equal(t, "200.00", car.Amount.StringFixed(2))
	assert.Equal(t, domain.CommissionPending, car.Status)

	moto, err := f.commissions.AddCommission(ctx, &domain.CommissionDraft{
		Type: domain.TypeMotorcycle, Client: "Pedro", Vehicle: "Honda Pop", Date: "2026-01-02",
	})
	require.NoError(t, err)
	assert.Equal(t, "100.00", moto.Amount.StringFixed(2))

	_, err = f.commissions.MarkReceived(ctx, car.ID)
	require.NoError(t, err)

	all, err := f.commissions.ListCommissions(ctx, domain.TabAll)
	require.NoError(t, err)
	require.Len(t, all.Items, 2)
	assert.Equal(t, moto.ID, all.Items[0].ID, "newest first")
	assert.Equal(t, "100.00", all.Totals.Pending.StringFixed(2))
	assert.Equal(t, "200.00", all.Totals.Received.StringFixed(2))
	assert.Equal(t, "300.00", all.Totals.Total.StringFixed(2))

	pending, err := f.commissions.ListCommissions(ctx, domain.TabPending)
	require.NoError(t, err)
	require.Len(t, pending.Items, 1)
	assert.Equal(t, moto.ID, pending.Items[0].ID)
	assert.Equal(t, all.Totals, pending.Totals, "totals ignore the tab")

	received, err := f.commissions.ListCommissions(ctx, domain.TabReceived)
	require.NoError(t, err)
	require.Len(t, received.Items, 1)
	assert.Equal(t, car.ID, received.Items[0].ID)

	require.NoError(t, f.commissions.DeleteCommission(ctx, moto.ID))
	all, err = f.commissions.ListCommissions(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all.Items, 1)
}

func TestCommissionErrors(t *testing.T) {
	f := newFixture(t, storage.EmptySeed())

	_, err := f.commissions.ListCommissions(ctx, "pagas")
	var verr *domain.ErrValidation
	require.ErrorAs(t, err, &verr)

	_, err = f.commissions.AddCommission(ctx, &domain.CommissionDraft{Type: domain.TypeCar, Vehicle: "Gol"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "client", verr.Field)

	var nf *domain.ErrNotFound
	_, err = f.commissions.MarkReceived(ctx, "cm-x")
	require.ErrorAs(t, err, &nf)
	require.ErrorAs(t, f.commissions.DeleteCommission(ctx, "cm-x"), &nf)
}

func TestClientBook(t *testing.T) {
	f := newFixture(t, storage.EmptySeed())

	saved, err := f.clients.UpsertClient(ctx, &domain.ClientRecord{Name: "Rita", CPF: "111.222.333-44", Phone: "(31) 91234-5678"})
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	again, err := f.clients.UpsertClient(ctx, &domain.ClientRecord{Name: "Rita Alves", CPF: "11122233344"})
	require.NoError(t, err)
	assert.Equal(t, saved.ID, again.ID)

	_, err = f.clients.UpsertClient(ctx, &domain.ClientRecord{Name: "Bruno"})
	require.NoError(t, err)

	all, err := f.clients.ListClients(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Bruno", all[0].Name)

	byCPF, err := f.clients.ListClients(ctx, "222333")
	require.NoError(t, err)
	require.Len(t, byCPF, 1)
	assert.Equal(t, "Rita Alves", byCPF[0].Name)

	got, err := f.clients.GetClient(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rita Alves", got.Name)

	_, err = f.clients.UpsertClient(ctx, &domain.ClientRecord{Name: " "})
	var verr *domain.ErrValidation
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "nome", verr.Field)

	_, err = f.clients.GetClient(ctx, "c-x")
	var nf *domain.ErrNotFound
	assert.ErrorAs(t, err, &nf)
}

func TestClientUpsertMatchesIDWhenCPFIsNew(t *testing.T) {
	f := newFixture(t, storage.EmptySeed())

	ana, err := f.clients.UpsertClient(ctx, &domain.ClientRecord{Name: "Ana"})
	require.NoError(t, err)
	bia, err := f.clients.UpsertClient(ctx, &domain.ClientRecord{Name: "Bia", CPF: "999.888.777-66"})
	require.NoError(t, err)

	updated, err := f.clients.UpsertClient(ctx, &domain.ClientRecord{ID: ana.ID, Name: "Ana Souza", CPF: "111.222.333-44"})
	require.NoError(t, err)
	assert.Equal(t, ana.ID, updated.ID)

	// A known CPF wins over a different id.
	again, err := f.clients.UpsertClient(ctx, &domain.ClientRecord{ID: ana.ID, Name: "Bia Costa", CPF: "99988877766"})
	require.NoError(t, err)
	assert.Equal(t, bia.ID, again.ID)

	all, err := f.clients.ListClients(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	seen := map[string]string{}
	for _, c := range all {
		_, dup := seen[c.ID]
		require.False(t, dup, "duplicate id %s", c.ID)
		seen[c.ID] = c.Name
	}
	assert.Equal(t, "Ana Souza", seen[ana.ID])
	assert.Equal(t, "Bia Costa", seen[bia.ID])
}
