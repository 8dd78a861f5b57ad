package ui

import (
	"strings"

	"github.com/phoenixcrm/leadview/pkg/model"
)

// LeadItem wraps model.Lead to implement list.Item
type LeadItem struct {
	Lead model.Lead
}

func (i LeadItem) Title() string {
	return i.Lead.DisplayName()
}

func (i LeadItem) Description() string {
	parts := make([]string, 0, 2)
	if i.Lead.Company != "" {
		parts = append(parts, i.Lead.Company)
	}
	if i.Lead.Email != "" {
		parts = append(parts, i.Lead.Email)
	}
	return strings.Join(parts, " • ")
}

func (i LeadItem) FilterValue() string {
	return i.Lead.SortName() + " " + i.Lead.Email + " " + i.Lead.Company
}
