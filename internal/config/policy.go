package config

// PasswordPolicy is the declarative strength policy checked before any
// directory round trip. Zero values disable the corresponding rule.
type PasswordPolicy struct {
	Enable         bool   `mapstructure:"enable" json:"enable"`
	MinLength      int    `mapstructure:"min_length" json:"min_length" validate:"min=0"`
	MaxLength      int    `mapstructure:"max_length" json:"max_length" validate:"min=0"`
	MinLowers      int    `mapstructure:"min_lowers" json:"min_lowers" validate:"min=0"`
	MinUppers      int    `mapstructure:"min_uppers" json:"min_uppers" validate:"min=0"`
	MinDigits      int    `mapstructure:"min_digits" json:"min_digits" validate:"min=0"`
	MinSpecials    int    `mapstructure:"min_specials" json:"min_specials" validate:"min=0"`
	Specials       string `mapstructure:"specials" json:"specials"`
	ForbidOthers   bool   `mapstructure:"forbid_others" json:"forbid_others"`
	ForbidUsername bool   `mapstructure:"forbid_username" json:"forbid_username"`
	ForbidReuse    bool   `mapstructure:"forbid_reuse" json:"forbid_reuse"`
	MinScore       int    `mapstructure:"min_score" json:"min_score" validate:"min=0,max=4"`
}
