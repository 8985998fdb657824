package storage

import "github.com/mgm-veiculos/mgm-api-go/internal/domain"

// Seed holds the lists returned for keys that were never written.
type Seed struct {
	ForSale     []domain.Vehicle
	Sold        []domain.Vehicle
	Archived    []domain.Vehicle
	Commissions []domain.Commission
	Phases      []domain.Phase
	Clients     []domain.ClientRecord
}

// DefaultPhase is the only archive bucket of a fresh install.
var DefaultPhase = domain.Phase{ID: "sem-fase", Title: "Sem fase"}

// EmptySeed starts with no vehicles and a single archive phase.
func EmptySeed() Seed {
	return Seed{Phases: []domain.Phase{DefaultPhase}}
}

func price(v int64) *domain.Money {
	return domain.MoneyPtr(domain.MoneyFromInt(v))
}

const demoContract = `Contrato (exemplo):

1) As partes declaram...
2) Valor e forma de pagamento...
3) Cláusulas gerais...

(Aqui entra o texto completo do contrato.)`

// DemoSeed is the showroom data used for demos and screenshots.
func DemoSeed() Seed {
	return Seed{
		ForSale: []domain.Vehicle{
			{ID: "1", Model: "Toyota Corolla 2022", Plate: "PZZ8E53", Year: 2022, Status: domain.StatusForSale, Type: domain.TypeCar, Price: price(30000)},
			{ID: "2", Model: "Ford Ranger 2020", Plate: "XY21G56", Year: 2020, Status: domain.StatusForSale, Type: domain.TypeCar, Price: price(85000)},
			{ID: "3", Model: "VW Gol 2018", Plate: "ABC-1234", Year: 2018, Status: domain.StatusForSale, Type: domain.TypeCar, Price: price(28000)},
			{ID: "4", Model: "Honda Civic 2023", Plate: "DEF-9876", Year: 2023, Status: domain.StatusForSale, Type: domain.TypeCar, Price: price(145000)},
			{ID: "5", Model: "Honda Biz 2021", Plate: "GHI-4321", Year: 2021, Status: domain.StatusForSale, Type: domain.TypeMotorcycle, Price: price(12500)},
			{ID: "6", Model: "Yamaha Fazer 2022", Plate: "JKL-5555", Year: 2022, Status: domain.StatusForSale, Type: domain.TypeMotorcycle, Price: price(19900)},
		},
		Sold: []domain.Vehicle{
			{ID: "10", Model: "Fiat Argo 2022", Plate: "STU-9012", Year: 2022, Status: domain.StatusOnTime, Type: domain.TypeCar,
				Client: "João Silva", Price: price(54900), SoldDate: "2025-11-12", NextDueDate: "2026-02-10"},
			{ID: "11", Model: "Chevrolet Onix 2021", Plate: "VWX-3456", Year: 2021, Status: domain.StatusDelinquent, Type: domain.TypeCar,
				Client: "Maria Santos", Price: price(49900), SoldDate: "2025-08-03", NextDueDate: "2025-12-10"},
			{ID: "12", Model: "Honda Fit 2020", Plate: "BCD-1234", Year: 2020, Status: domain.StatusDelinquent, Type: domain.TypeCar,
				Client: "Ana Costa", Price: price(46000), SoldDate: "2025-05-22", NextDueDate: "2025-10-10"},
		},
		Archived: []domain.Vehicle{
			{ID: "20", Model: "Ford Ka 2019", Plate: "NOP-1234", Year: 2019, Status: domain.StatusPaidOff, Type: domain.TypeCar,
				Client: "Lucas Ferreira", CPF: "000.000.000-00", Phone: "(31) 90000-0000",
				TotalValue: price(32900), DownPayment: price(5000), CommissionValue: price(0),
				Notes:             "Cliente já comprou com a gente antes. Preferência por contato no WhatsApp.",
				SpecialConditions: "Entrega do veículo após vistoria. Transferência por conta do comprador.",
				ContractText:      demoContract,
				ArchivedYear:      2023, PhaseID: "ano-2023"},
			{ID: "24", Model: "Volkswagen Voyage 2021", Plate: "ZAB-7890", Year: 2021, Status: domain.StatusPaidOff, Type: domain.TypeCar,
				Client: "Ricardo Mendes", CPF: "000.000.000-00", Phone: "(31) 90000-0000",
				TotalValue: price(58000), DownPayment: price(10000), CommissionValue: price(0),
				Notes: "Quitado sem atrasos.", SpecialConditions: "Nenhuma.",
				ContractText: "Contrato (exemplo), texto completo aqui.",
				ArchivedYear: 2024, PhaseID: "ano-2024"},
			{ID: "27", Model: "Yamaha Factor 150", Plate: "IJK-9012", Year: 2020, Status: domain.StatusPaidOff, Type: domain.TypeMotorcycle,
				Client: "Sandra Lima", CPF: "000.000.000-00", Phone: "(31) 90000-0000",
				TotalValue: price(13900), DownPayment: price(2000), CommissionValue: price(0),
				Notes: "Documentação ok.", SpecialConditions: "Somente retirada com documento original.",
				ContractText: "Contrato (exemplo), texto completo aqui.",
				ArchivedYear: 2024, PhaseID: "ano-2024"},
		},
		Phases: []domain.Phase{domain.YearPhase(2024), domain.YearPhase(2023)},
	}
}
