package wishlist

type Snapshot struct {
	IDs []string `json:"ids" validate:"required,dive,min=1,max=64"`
}
