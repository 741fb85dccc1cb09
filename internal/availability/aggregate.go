package availability

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wholesaledesk/ordering-backend/pkg/db/models"
)

// BranchRef is one stock column.
type BranchRef struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	DisplayName string    `json:"display_name"`
}

// BranchQuantity is the stock of one product at one branch.
type BranchQuantity struct {
	BranchID uuid.UUID       `json:"branch_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// ProductAvailability is one table row. PerBranch follows Table.Branches order.
type ProductAvailability struct {
	ProductID     uuid.UUID        `json:"product_id"`
	Code          string           `json:"code"`
	Name          string           `json:"name"`
	TotalQuantity decimal.Decimal  `json:"total_quantity"`
	PerBranch     []BranchQuantity `json:"per_branch"`
	AsOf          *time.Time       `json:"as_of"`
}

// Table is stock for a product group with a fixed column per branch.
type Table struct {
	GroupID  uuid.UUID             `json:"group_id"`
	Branches []BranchRef           `json:"branches"`
	Products []ProductAvailability `json:"products"`
}

// Aggregate merges stock rows into a table. Every branch appears for every product, filled
// with zero when no row exists. Rows for unknown products or branches are ignored.
func Aggregate(groupID uuid.UUID, branches []models.Branch, products []models.Product, rows []models.AvailabilityRow) Table {
	refs := make([]BranchRef, 0, len(branches))
	for _, b := range branches {
		refs = append(refs, BranchRef{ID: b.ID, Code: b.Code, DisplayName: b.DisplayName})
	}
	sort.SliceStable(refs, func(i, j int) bool {
		if refs[i].DisplayName != refs[j].DisplayName {
			return refs[i].DisplayName < refs[j].DisplayName
		}
		return refs[i].ID.String() < refs[j].ID.String()
	})
	column := make(map[uuid.UUID]int, len(refs))
	for i, ref := range refs {
		column[ref.ID] = i
	}

	sorted := make([]models.Product, len(products))
	copy(sorted, products)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.Compare(sorted[i].Code, sorted[j].Code) < 0
	})

	table := Table{
		GroupID:  groupID,
		Branches: refs,
		Products: make([]ProductAvailability, 0, len(sorted)),
	}
	rowIndex := make(map[uuid.UUID]int, len(sorted))
	for _, p := range sorted {
		perBranch := make([]BranchQuantity, len(refs))
		for i, ref := range refs {
			perBranch[i] = BranchQuantity{BranchID: ref.ID, Quantity: decimal.Zero}
		}
		rowIndex[p.ID] = len(table.Products)
		table.Products = append(table.Products, ProductAvailability{
			ProductID:     p.ID,
			Code:          p.Code,
			Name:          p.Name,
			TotalQuantity: decimal.Zero,
			PerBranch:     perBranch,
		})
	}

	for _, row := range rows {
		idx, ok := rowIndex[row.ProductID]
		if !ok {
			continue
		}
		col, ok := column[row.BranchID]
		if !ok {
			continue
		}
		entry := &table.Products[idx]
		entry.PerBranch[col].Quantity = entry.PerBranch[col].Quantity.Add(row.Quantity)
		entry.TotalQuantity = entry.TotalQuantity.Add(row.Quantity)
		if entry.AsOf == nil || row.AsOf.After(*entry.AsOf) {
			asOf := row.AsOf
			entry.AsOf = &asOf
		}
	}
	return table
}
