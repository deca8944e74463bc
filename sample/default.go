package sample

import "github.com/YuminosukeSato/loanml/schema"

var defaultNumeric = map[string]float64{
	schema.CreditScore:                700,
	schema.AnnualIncome:               200000,
	schema.LoanAmount:                 120000,
	schema.LoanDuration:               30,
	schema.Age:                        35,
	schema.NumberOfDependents:         1,
	schema.MonthlyDebtPayments:        500,
	schema.CreditCardUtilizationRate:  0.2,
	schema.NumberOfOpenCreditLines:    5,
	schema.NumberOfCreditInquiries:    1,
	schema.DebtToIncomeRatio:          0.3,
	schema.BankruptcyHistory:          0,
	schema.PreviousLoanDefaults:       0,
	schema.InterestRate:               0.05,
	schema.PaymentHistory:             24,
	schema.SavingsAccountBalance:      10000,
	schema.CheckingAccountBalance:     5000,
	schema.InvestmentAccountBalance:   20000,
	schema.RetirementAccountBalance:   50000,
	schema.EmergencyFundBalance:       15000,
	schema.TotalAssets:                350000,
	schema.TotalLiabilities:           120000,
	schema.NetWorth:                   230000,
	schema.LengthOfCreditHistory:      10,
	schema.MortgageBalance:            100000,
	schema.RentPayments:               0,
	schema.AutoLoanBalance:            10000,
	schema.PersonalLoanBalance:        0,
	schema.StudentLoanBalance:         5000,
	schema.UtilityBillsPaymentHistory: 1.0,
	schema.OtherInsurancePolicies:     2,
	schema.JobTenure:                  60,
	schema.MonthlySavings:             1000,
	schema.AnnualBonuses:              5000,
	schema.AnnualExpenses:             40000,
	schema.MonthlyHousingCosts:        1500,
	schema.MonthlyTransportationCosts: 300,
	schema.MonthlyFoodCosts:           600,
	schema.MonthlyHealthcareCosts:     200,
	schema.MonthlyEntertainmentCosts:  300,
}

var defaultCategorical = map[string]string{
	schema.HomeOwnershipStatus:   "Own",
	schema.LoanPurpose:           "Home Improvement",
	schema.HealthInsuranceStatus: "Insured",
	schema.LifeInsuranceStatus:   "Insured",
	schema.CarInsuranceStatus:    "Insured",
	schema.HomeInsuranceStatus:   "Insured",
	schema.EmployerType:          "Private",
}

// Default returns the applicant the session starts with: a 35-year-old single,
// employed bachelor's graduate with a 700 credit score asking for 120000 over 30
// years on a 200000 income.
func Default() schema.LoanRecord {
	rec := schema.NewRecord()
	for name, v := range defaultNumeric {
		if err := rec.SetNumeric(name, v); err != nil {
			panic(err)
		}
	}
	for name, v := range defaultCategorical {
		if err := rec.SetCategorical(name, v); err != nil {
			panic(err)
		}
	}
	rec.SetEmploymentStatus(schema.Employed)
	rec.SetMaritalStatus(schema.Single)
	rec.SetEducationLevel(schema.Bachelor)
	return rec
}
