package models

// Token is a stored SPL token descriptor
type Token struct {
	ID        string `json:"id"`
	Address   string `json:"address"`
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	Decimals  int    `json:"decimals"`
	LogoURI   string `json:"logoURI,omitempty"`
	Verified  bool   `json:"verified"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// Clone returns a copy of t
func (t *Token) Clone() *Token {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// TokenInput is the unsanitized payload for registering a token.
// Decimals is untyped so that numeric strings from form posts are coerced.
type TokenInput struct {
	Address  string      `json:"address"`
	Symbol   string      `json:"symbol"`
	Name     string      `json:"name"`
	Decimals interface{} `json:"decimals"`
	LogoURI  string      `json:"logoURI,omitempty"`
	Verified bool        `json:"verified"`
}

// TokenPatch carries the fields of a token update; nil fields are untouched
type TokenPatch struct {
	Address  *string     `json:"address,omitempty"`
	Symbol   *string     `json:"symbol,omitempty"`
	Name     *string     `json:"name,omitempty"`
	Decimals interface{} `json:"decimals,omitempty"`
	LogoURI  *string     `json:"logoURI,omitempty"`
	Verified *bool       `json:"verified,omitempty"`
}

// TokenFilter narrows FindAll results; zero values match everything
type TokenFilter struct {
	Symbol   string `form:"symbol"`
	Name     string `form:"name"`
	Verified *bool  `form:"verified"`
}
