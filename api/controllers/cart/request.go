package cart

type addItemRequest struct {
	ProductID       string `json:"productId" validate:"required,max=64"`
	Quantity        int    `json:"quantity" validate:"required,gte=1,lte=99"`
	SkipBundleCheck bool   `json:"skipBundleCheck"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0,lte=99"`
}

type redeemPointsRequest struct {
	Points int `json:"points" validate:"gte=0"`
}

type acceptBundleRequest struct {
	BundleID        string `json:"bundleId" validate:"required,max=64"`
	AddMissingItems bool   `json:"addMissingItems"`
}
