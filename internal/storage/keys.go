// Package storage keeps the application state as independent JSON lists,
// one per key, on top of a port.KVStore.
package storage

const (
	KeyForSale         = "mgm_vehicles_for_sale_v1"
	KeySold            = "mgm_vehicles_sold_v1"
	KeyArchived        = "mgm_vehicles_archived_v1"
	KeyCommissions     = "mgm_commissions_v1"
	KeyCommissionRates = "mgm_commission_rates_v1"
	KeyPhases          = "mgm_archived_phases_v1"
	KeyClients         = "mgm_clients_db_v1"

	// KeyPrefix scopes backup, import and reset.
	KeyPrefix = "mgm_"
)

// AllKeys lists every key the application writes.
func AllKeys() []string {
	return []string{
		KeyForSale,
		KeySold,
		KeyArchived,
		KeyCommissions,
		KeyCommissionRates,
		KeyPhases,
		KeyClients,
	}
}
