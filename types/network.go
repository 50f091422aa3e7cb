package types

// PoolUsage reports how much of the internal address range is held by live VMs.
type PoolUsage struct {
	Prefix string `json:"prefix"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Used   int    `json:"used"`
	Total  int    `json:"total"`
	// Lowest free address, empty when exhausted.
	Next string `json:"next,omitempty"`
}

// Free is the number of addresses still available.
func (u PoolUsage) Free() int {
	return u.Total - u.Used
}
