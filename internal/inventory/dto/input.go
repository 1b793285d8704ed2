package dto

import "github.com/fekuna/omnipos-bar-service/internal/model"

type ImportSalesInput struct {
	Source string      // file name or event reference, recorded on movements
	Table  model.Table // raw sales table, header matched by the aggregator
	UserID string
	DryRun bool // compute the report without persisting
}

type Summary struct {
	TotalItems int `json:"total_items"`
	LowStock   int `json:"low_stock"`
	Categories int `json:"categories"`
}
