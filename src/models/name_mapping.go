package models

// NameMapping maps a broker company name to its localized display name.
type NameMapping struct {
	ID          int64  `db:"id" json:"id"`
	BbgName     string `db:"bbg_name" json:"bbgName"`
	ChineseName string `db:"chinese_name" json:"chineseName"`
	PositionID  *int64 `db:"position_id" json:"positionId"`
	CreatedAt   string `db:"created_at" json:"createdAt"`
	UpdatedAt   string `db:"updated_at" json:"updatedAt"`
}

// AppSettings is the response shape of the settings endpoint.
type AppSettings struct {
	Aum float64 `json:"aum"`
}

// NameMappingInput is the request body to create or update a name mapping.
type NameMappingInput struct {
	BbgName     string `json:"bbgName"`
	ChineseName string `json:"chineseName"`
	PositionID  *int64 `json:"positionId"`
}

// NameMappingUpdate is the request body to change a name mapping. Only the keys present are applied.
type NameMappingUpdate struct {
	BbgName     *string    `json:"bbgName"`
	ChineseName *string    `json:"chineseName"`
	PositionID  OptionalID `json:"positionId"`
}
