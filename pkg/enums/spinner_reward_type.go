package enums

import "fmt"

// SpinnerRewardType determines how a spinner reward turns into a discount.
type SpinnerRewardType string

const (
	SpinnerRewardPercentage  SpinnerRewardType = "PERCENTAGE_DISCOUNT"
	SpinnerRewardFixed       SpinnerRewardType = "FIXED_DISCOUNT"
	SpinnerRewardFreeProduct SpinnerRewardType = "FREE_PRODUCT"
	SpinnerRewardVoucher     SpinnerRewardType = "VOUCHER_CODE"
)

var validSpinnerRewardTypes = []SpinnerRewardType{
	SpinnerRewardPercentage,
	SpinnerRewardFixed,
	SpinnerRewardFreeProduct,
	SpinnerRewardVoucher,
}

func (t SpinnerRewardType) String() string {
	return string(t)
}

func (t SpinnerRewardType) IsValid() bool {
	for _, candidate := range validSpinnerRewardTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

func ParseSpinnerRewardType(value string) (SpinnerRewardType, error) {
	for _, candidate := range validSpinnerRewardTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid spinner reward type %q", value)
}
