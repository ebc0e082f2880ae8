package core

import "fmt"

// KernelCode selects which engine renders a tool.
type KernelCode string

const (
	KernelSubscription KernelCode = "SUBSCRIPTION_V1"
	KernelMap          KernelCode = "MAP_LEAFLET_V1"
)

// Tab is a view of the subscription kernel.
type Tab string

const (
	TabOverview     Tab = "overview"
	TabIncome       Tab = "income"
	TabExpense      Tab = "expense"
	TabSubscription Tab = "subscription"
)

// Tool is an entry of the tool directory.
type Tool struct {
	Slug        string     `json:"slug"`
	Name        string     `json:"name"`
	CategoryID  string     `json:"category_id"`
	KernelCode  KernelCode `json:"kernel_code"`
	Hidden      bool       `json:"hidden"`
	Description string     `json:"description"`
	DefaultTab  Tab        `json:"default_tab"`
}

var tabSlugs = map[Tab]string{
	TabOverview:     "finance-overview",
	TabIncome:       "income-manager",
	TabExpense:      "expense-manager",
	TabSubscription: "subscription-tracker",
}

// SlugForTab returns the tool slug that opens a tab.
func SlugForTab(t Tab) (string, bool) {
	s, ok := tabSlugs[t]
	return s, ok
}

// ParseTab validates a tab name.
func ParseTab(s string) (Tab, error) {
	t := Tab(s)
	if _, ok := tabSlugs[t]; !ok {
		return "", fmt.Errorf("unknown tab %q", s)
	}
	return t, nil
}

// Mode maps a tab to the grid mode it renders. Overview has no single mode.
func (t Tab) Mode() (AggregateMode, bool) {
	switch t {
	case TabIncome:
		return ModeIncome, true
	case TabExpense:
		return ModeExpense, true
	case TabSubscription:
		return ModePureSubscription, true
	default:
		return "", false
	}
}
