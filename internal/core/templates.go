package core

import "time"

// SubscriptionTemplate prefills the form for a well-known service.
type SubscriptionTemplate struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Category            string   `json:"category"`
	DefaultMonthlyPrice int64    `json:"default_monthly_price"`
	Tags                []string `json:"tags"`
}

// CustomTemplateID leaves the name to the user.
const CustomTemplateID = "custom"

var subscriptionTemplates = []SubscriptionTemplate{
	{ID: "notion", Name: "Notion", Category: "productivity", DefaultMonthlyPrice: 250, Tags: []string{"notes", "projects"}},
	{ID: "chatgpt_plus", Name: "ChatGPT Plus", Category: "ai tools", DefaultMonthlyPrice: 650, Tags: []string{"ai", "writing"}},
	{ID: "netflix", Name: "Netflix", Category: "video", DefaultMonthlyPrice: 270, Tags: []string{"series"}},
	{ID: "spotify", Name: "Spotify", Category: "music", DefaultMonthlyPrice: 149, Tags: []string{"music", "podcast"}},
	{ID: "youtube_premium", Name: "YouTube Premium", Category: "video", DefaultMonthlyPrice: 199, Tags: []string{"ad-free"}},
	{ID: "adobe_cc", Name: "Adobe Creative Cloud", Category: "creative", DefaultMonthlyPrice: 1680, Tags: []string{"design", "editing"}},
	{ID: "icloud", Name: "iCloud", Category: "cloud storage", DefaultMonthlyPrice: 30, Tags: []string{"backup"}},
	{ID: CustomTemplateID, Name: "", Category: "software", DefaultMonthlyPrice: 0, Tags: []string{}},
}

// SubscriptionTemplates returns a copy of the catalog.
func SubscriptionTemplates() []SubscriptionTemplate {
	out := make([]SubscriptionTemplate, len(subscriptionTemplates))
	copy(out, subscriptionTemplates)
	return out
}

// TemplateByID looks up a catalog entry.
func TemplateByID(id string) (SubscriptionTemplate, bool) {
	for _, t := range subscriptionTemplates {
		if t.ID == id {
			return t, true
		}
	}
	return SubscriptionTemplate{}, false
}

// IncomeType describes an entry in the income form.
type IncomeType struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Category    string `json:"category"`
	IsRecurring bool   `json:"is_recurring"`
}

const IncomeTypeAdvance = "advance"

var incomeTypes = []IncomeType{
	{ID: "salary", Label: "Salary (recurring)", Category: CategoryFixedIncome, IsRecurring: true},
	{ID: "bonus", Label: "Bonus", Category: "bonus"},
	{ID: IncomeTypeAdvance, Label: "Advance (next month)", Category: "advance"},
	{ID: "freelance", Label: "Freelance", Category: "freelance"},
	{ID: "windfall", Label: "Windfall", Category: "other"},
	{ID: "other", Label: "Other", Category: "other"},
}

// IncomeTypes returns a copy of the income type list.
func IncomeTypes() []IncomeType {
	out := make([]IncomeType, len(incomeTypes))
	copy(out, incomeTypes)
	return out
}

// IncomeTypeByID looks up an income type.
func IncomeTypeByID(id string) (IncomeType, bool) {
	for _, t := range incomeTypes {
		if t.ID == id {
			return t, true
		}
	}
	return IncomeType{}, false
}

// ExpenseCategory is an option in the expense form.
type ExpenseCategory struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var expenseCategories = []ExpenseCategory{
	{ID: "food", Label: "Food"},
	{ID: "transport", Label: "Transport"},
	{ID: "shopping", Label: "Shopping"},
	{ID: "entertainment", Label: "Entertainment"},
	{ID: CategoryBills, Label: "Bills (utilities)"},
	{ID: CategoryHousing, Label: "Rent / mortgage"},
	{ID: "medical", Label: "Medical"},
	{ID: "other", Label: "Other"},
}

// ExpenseCategories returns a copy of the expense category list.
func ExpenseCategories() []ExpenseCategory {
	out := make([]ExpenseCategory, len(expenseCategories))
	copy(out, expenseCategories)
	return out
}

// DefaultIncomeDate is the suggested transaction date for an income type:
// the first of next month for advances, today otherwise.
func DefaultIncomeDate(incomeTypeID string, now time.Time) Date {
	if incomeTypeID == IncomeTypeAdvance {
		return NewDate(now.Year(), int(now.Month())+1, 1)
	}
	return NewDate(now.Year(), int(now.Month()), now.Day())
}
