package resource

// LifecycleRequest is the body of PUT and DELETE /api/v1/<resource>/delete.
type LifecycleRequest struct {
	IDs        []string `json:"ids" binding:"required,min=1,dive,required"`
	DeleteType string   `json:"deleteType" binding:"required"`
}
