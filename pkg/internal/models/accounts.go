package models

// Account is the local mirror of a verified user identity. Rows are
// provisioned lazily the first time a token for the user passes
// verification.
type Account struct {
	BaseModel

	Name   string  `json:"name" gorm:"uniqueIndex"`
	Nick   string  `json:"nick"`
	Avatar *string `json:"avatar"`

	Channels []Channel `json:"channels" gorm:"foreignKey:AccountID"`
}
