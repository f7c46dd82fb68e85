package sec

import (
	"github.com/wonny/volur/internal/contracts"
)

type companyFacts struct {
	EntityName string                     `json:"entityName"`
	Facts      map[string]map[string]fact `json:"facts"` // taxonomy → concept
}

type fact struct {
	Units map[string][]factValue `json:"units"`
}

type factValue struct {
	End   string  `json:"end"`
	Val   float64 `json:"val"`
	FY    int     `json:"fy"`
	FP    string  `json:"fp"`
	Form  string  `json:"form"`
	Filed string  `json:"filed"`
}

// latest returns the most recent value of the first concept that has one.
// With annual set only full-year 10-K values count, so flows are never
// mixed with quarterly year-to-date figures.
func (cf companyFacts) latest(taxonomy, unit string, annual bool, concepts ...string) contracts.Metric {
	for _, concept := range concepts {
		values := cf.Facts[taxonomy][concept].Units[unit]

		var (
			best  factValue
			found bool
		)
		for _, v := range values {
			if annual && (v.Form != "10-K" || v.FP != "FY") {
				continue
			}
			// ISO dates compare lexically
			if !found || v.End > best.End || (v.End == best.End && v.Filed > best.Filed) {
				best, found = v, true
			}
		}
		if found {
			return contracts.Some(best.Val)
		}
	}
	return contracts.None()
}

func (cf companyFacts) fundamentals() contracts.Fundamentals {
	const gaap = "us-gaap"

	ocf := cf.latest(gaap, "USD", true, "NetCashProvidedByUsedInOperatingActivities")
	capex := cf.latest(gaap, "USD", true, "PaymentsToAcquirePropertyPlantAndEquipment")
	netIncome := cf.latest(gaap, "USD", true, "NetIncomeLoss")
	revenue := cf.latest(gaap, "USD", true, "Revenues", "RevenueFromContractWithCustomerExcludingAssessedTax", "SalesRevenueNet")
	operatingIncome := cf.latest(gaap, "USD", true, "OperatingIncomeLoss")

	equity := cf.latest(gaap, "USD", false, "StockholdersEquity", "StockholdersEquityIncludingPortionAttributableToNoncontrollingInterest")
	assets := cf.latest(gaap, "USD", false, "Assets")
	debt := cf.latest(gaap, "USD", false, "LongTermDebt", "LongTermDebtNoncurrent")
	if !debt.Present() {
		debt = cf.latest(gaap, "USD", false, "Liabilities")
	}

	shares := cf.latest("dei", "shares", false, "EntityCommonStockSharesOutstanding")

	return contracts.Fundamentals{
		ROE:                ratio(netIncome, equity),
		ROA:                ratio(netIncome, assets),
		DebtToEquity:       ratio(debt, equity),
		FreeCashFlow:       difference(ocf, capex),
		SharesOutstanding:  shares,
		ShareholdersEquity: equity,
		Revenue:            revenue,
		OperatingMargin:    ratio(operatingIncome, revenue),
		Name:               cf.EntityName,
	}
}

// ratio is a / b, unavailable unless both are present and b > 0
func ratio(a, b contracts.Metric) contracts.Metric {
	x, ok := a.Get()
	if !ok || !b.Positive() {
		return contracts.None()
	}
	y, _ := b.Get()
	return contracts.Some(x / y)
}

func difference(a, b contracts.Metric) contracts.Metric {
	x, ok1 := a.Get()
	y, ok2 := b.Get()
	if !ok1 || !ok2 {
		return contracts.None()
	}
	return contracts.Some(x - y)
}
