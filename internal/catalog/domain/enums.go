package domain

type HomeType string

const (
	HomeApartment HomeType = "apartment"
	HomeStore     HomeType = "store"
	HomeOffice    HomeType = "office"
	HomeLand      HomeType = "land"
	HomeCondo     HomeType = "condo"
	HomeHouse     HomeType = "house"
	HomeWarehouse HomeType = "warehouse"
)

var homeTypes = []HomeType{
	HomeApartment, HomeStore, HomeOffice, HomeLand, HomeCondo, HomeHouse, HomeWarehouse,
}

// HomeTypes returns the allowed homeType vocabulary in declaration order.
func HomeTypes() []HomeType {
	out := make([]HomeType, len(homeTypes))
	copy(out, homeTypes)
	return out
}

func (h HomeType) Valid() bool {
	for _, v := range homeTypes {
		if v == h {
			return true
		}
	}
	return false
}

type Feature string

const (
	FeaturePool           Feature = "pool"
	FeatureGarage         Feature = "garage"
	FeatureOutdoorSpace   Feature = "outdoor space"
	FeatureInternet       Feature = "internet"
	FeatureTense          Feature = "tense"
	FeatureFireplace      Feature = "fireplace"
	FeatureHeatingCooling Feature = "heating/cooling"
	FeatureFurnished      Feature = "furnished"
	FeatureRenovated      Feature = "renovated"
	FeatureElevator       Feature = "elevator"
)

var features = []Feature{
	FeaturePool, FeatureGarage, FeatureOutdoorSpace, FeatureInternet, FeatureTense,
	FeatureFireplace, FeatureHeatingCooling, FeatureFurnished, FeatureRenovated, FeatureElevator,
}

// Features returns the allowed feature vocabulary in declaration order.
func Features() []Feature {
	out := make([]Feature, len(features))
	copy(out, features)
	return out
}

func (f Feature) Valid() bool {
	for _, v := range features {
		if v == f {
			return true
		}
	}
	return false
}
