package dto

// Quote is a point-in-time market snapshot for one stock. A requested
// stock may have no quote at all; that is an expected input state.
type Quote struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	LastDone  float64 `json:"last_done"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	PrevClose float64 `json:"prev_close"`
	ChangePct float64 `json:"change_pct"`
	Volume    int64   `json:"volume"`
	Turnover  float64 `json:"turnover"`
}

// DisplayName returns the quote name, falling back to the symbol.
func (q *Quote) DisplayName() string {
	if q != nil && q.Name != "" {
		return q.Name
	}
	if q != nil {
		return q.Symbol
	}
	return ""
}
