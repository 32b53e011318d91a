package config

// ChartConfig holds chart rendering settings
type ChartConfig struct {
	Width    int `mapstructure:"width" json:"width"`
	Height   int `mapstructure:"height" json:"height"`
	BarWidth int `mapstructure:"bar_width" json:"bar_width"`
}
