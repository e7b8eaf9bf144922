package category

// DefaultCategory describes one entry of the starter category set.
type DefaultCategory struct {
	Name      string
	Color     string
	IsExpense bool
}

// DefaultCategories is the starter set created for every new user by
// Service.SeedDefaults.
var DefaultCategories = []DefaultCategory{
	// Expenses
	{Name: "Alimentação", Color: "#FF5733", IsExpense: true},
	{Name: "Moradia", Color: "#C70039", IsExpense: true},
	{Name: "Transporte", Color: "#900C3F", IsExpense: true},
	{Name: "Saúde", Color: "#581845", IsExpense: true},
	{Name: "Educação", Color: "#FFC300", IsExpense: true},
	{Name: "Lazer", Color: "#DAF7A6", IsExpense: true},
	{Name: "Vestuário", Color: "#9B59B6", IsExpense: true},
	{Name: "Cartão de Crédito", Color: "#3498DB", IsExpense: true},
	{Name: "Serviços", Color: "#2ECC71", IsExpense: true},
	{Name: "Impostos", Color: "#7D3C98", IsExpense: true},

	// Income
	{Name: "Salário", Color: "#27AE60", IsExpense: false},
	{Name: "Investimentos", Color: "#2E86C1", IsExpense: false},
	{Name: "Transferências", Color: "#F39C12", IsExpense: false},
}
