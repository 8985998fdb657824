package service_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgm-veiculos/mgm-api-go/internal/domain"
	"github.com/mgm-veiculos/mgm-api-go/internal/storage"
)

func saleRequest() *domain.SaleRequest {
	return &domain.SaleRequest{
		Customer: domain.SaleCustomer{
			Name:  "Carlos Souza",
			Phone: "(31) 98888-7777",
			CPF:   "123.456.789-09",
		},
		Terms: domain.SaleTerms{
			DownPayment:      money(5000),
			FinancedValue:    money(25000),
			SaleDate:         "2026-01-10",
			Installments:     10,
			FirstDueDate:     "2026-02-10",
			InstallmentValue: money(2500),
			Notes:            "Entrega após transferência",
		},
	}
}

func TestSellMovesVehicleAndCreatesCommission(t *testing.T) {
	f := demoFixture(t)

	res, err := f.vehicles.Sell(ctx, "1", saleRequest())
	require.NoError(t, err)

	v := res.Vehicle
	assert.Equal(t, domain.StatusOnTime, v.Status)
	assert.Equal(t, "Carlos Souza", v.Client)
	assert.Equal(t, "2026-01-10", v.SoldDate)
	assert.Equal(t, "2026-02-10", v.NextDueDate)
	assert.Equal(t, "25000.00", v.Price.StringFixed(2))
	assert.Equal(t, "5000.00", v.DownPayment.StringFixed(2))
	assert.Equal(t, 10, v.Installments)
	assert.Equal(t, "123.456.789-09", v.CPF)
	assert.Equal(t, "Entrega após transferência", v.Notes)

	_, err = f.vehicles.GetForSale(ctx, "1")
	var nf *domain.ErrNotFound
	require.ErrorAs(t, err, &nf)

	board, err := f.vehicles.ListSold(ctx, domain.SoldQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "10"}, entryIDs(board.OnTime))

	c := res.Commission
	assert.True(t, strings.HasPrefix(c.ID, "cm-"))
	assert.Equal(t, domain.CommissionPending, c.Status)
	assert.Equal(t, "200.00", c.Amount.StringFixed(2))
	assert.Equal(t, "Toyota Corolla 2022", c.Vehicle)
	assert.Equal(t, "2026-01-10", c.Date)

	list, err := f.commissions.ListCommissions(ctx, domain.TabAll)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, c.ID, list.Items[0].ID)

	require.NotNil(t, res.Client)
	clients, err := f.clients.ListClients(ctx, "")
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "Carlos Souza", clients[0].Name)
}

func TestSellUsesMotorcycleRateAndDefaults(t *testing.T) {
	f := demoFixture(t)

	_, err := f.settings.SaveRates(ctx, domain.CommissionRates{Car: domain.MoneyFromInt(300), Motorcycle: domain.MoneyFromInt(150)})
	require.NoError(t, err)

	res, err := f.vehicles.Sell(ctx, "5", &domain.SaleRequest{})
	require.NoError(t, err)

	assert.Equal(t, "150.00", res.Commission.Amount.StringFixed(2))
	assert.Equal(t, "2026-01-15", res.Vehicle.SoldDate)
	assert.Equal(t, "12500.00", res.Vehicle.Price.StringFixed(2))
	assert.Nil(t, res.Client, "empty customer is not saved")
}

func TestSellUpsertsClientByCPF(t *testing.T) {
	f := demoFixture(t)

	first, err := f.vehicles.Sell(ctx, "1", saleRequest())
	require.NoError(t, err)

	req := saleRequest()
	req.Customer.CPF = "12345678909"
	req.Customer.Address = "Rua A, 10"
	second, err := f.vehicles.Sell(ctx, "2", req)
	require.NoError(t, err)

	assert.Equal(t, first.Client.ID, second.Client.ID)
	clients, err := f.clients.ListClients(ctx, "")
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "Rua A, 10", clients[0].Address)
}

func TestSellKeepsClientIDUniqueWhenCPFIsAdded(t *testing.T) {
	f := demoFixture(t)

	saved, err := f.clients.UpsertClient(ctx, &domain.ClientRecord{Name: "Ana Lima", Phone: "(31) 97777-0000"})
	require.NoError(t, err)

	req := saleRequest()
	req.ClientID = saved.ID
	req.Customer.Name = "Ana Lima"
	req.Customer.CPF = "111.222.333-44"
	res, err := f.vehicles.Sell(ctx, "1", req)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, res.Client.ID)

	clients, err := f.clients.ListClients(ctx, "")
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "111.222.333-44", clients[0].CPF)

	got, err := f.clients.GetClient(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "111.222.333-44", got.CPF)
}

func TestSellWithoutSavingClient(t *testing.T) {
	f := demoFixture(t)

	req := saleRequest()
	req.SaveClient = ptr(false)
	res, err := f.vehicles.Sell(ctx, "1", req)
	require.NoError(t, err)
	assert.Nil(t, res.Client)

	clients, err := f.clients.ListClients(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, clients)
}

func TestSellCommitsOnce(t *testing.T) {
	f := demoFixture(t)
	before := f.repo.Version()

	_, err := f.vehicles.Sell(ctx, "1", saleRequest())
	require.NoError(t, err)
	assert.Equal(t, before+1, f.repo.Version())

	keys, err := f.kv.Keys(ctx, storage.KeyPrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{
		storage.KeyClients,
		storage.KeyCommissions,
		storage.KeyForSale,
		storage.KeySold,
	}, keys)
}

func TestSellUnknownVehicleWritesNothing(t *testing.T) {
	f := demoFixture(t)

	_, err := f.vehicles.Sell(ctx, "nope", saleRequest())
	var nf *domain.ErrNotFound
	require.ErrorAs(t, err, &nf)

	keys, err := f.kv.Keys(ctx, storage.KeyPrefix)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestSellAssignsPaymentIDs(t *testing.T) {
	f := demoFixture(t)

	req := saleRequest()
	req.Terms.Payments = []domain.Payment{
		{Number: 1, DueDate: "2026-02-10", Value: domain.MoneyFromInt(2500), Status: domain.PaymentUnpaid},
	}
	res, err := f.vehicles.Sell(ctx, "1", req)
	require.NoError(t, err)
	require.Len(t, res.Vehicle.Payments, 1)
	assert.True(t, strings.HasPrefix(res.Vehicle.Payments[0].ID, "p-"))
}
