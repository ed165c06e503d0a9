package forms

import "sort"

const (
	FlowVehicle         = "vehicle"
	FlowDeliveryRequest = "delivery-request"
	FlowDriverDocuments = "driver-documents"
)

var vehicleTypes = []string{"Car", "Van", "Truck", "Motorcycle"}

// VehicleFlow registers a driver's vehicle: details, then both photos.
func VehicleFlow() Definition {
	return Definition{
		Name:     FlowVehicle,
		Endpoint: "vehicles",
		Stages: []Stage{
			{
				Name:    "details",
				Message: "Please fill in all vehicle details",
				Fields: []Field{
					{Name: "selectedType", Kind: KindSelect, Required: true, Options: vehicleTypes},
					{Name: "brand", Kind: KindText, Required: true},
					{Name: "model", Kind: KindText, Required: true},
					{Name: "licensePlate", Kind: KindText, Required: true, Upper: true},
					{Name: "color", Kind: KindText, Required: true},
					{Name: "year", Kind: KindNumber},
					{Name: "capacityKg", Kind: KindNumber},
				},
			},
			{
				Name:    "photos",
				Message: "Both photos are required",
				Fields: []Field{
					{Name: "imageFront", Kind: KindFile, Required: true, Accept: "image/"},
					{Name: "imageBack", Kind: KindFile, Required: true, Accept: "image/"},
				},
			},
			{Name: "done", Terminal: true},
		},
		Sensitive: []string{"licensePlate"},
	}
}

// DeliveryRequestFlow posts a sender's delivery request: route, cargo, optional photo.
func DeliveryRequestFlow() Definition {
	return Definition{
		Name:     FlowDeliveryRequest,
		Endpoint: "delivery-requests",
		Stages: []Stage{
			{
				Name:    "route",
				Message: "Please enter pickup and destination addresses and a pickup date",
				Fields: []Field{
					{Name: "fromAddress", Kind: KindText, Required: true},
					{Name: "toAddress", Kind: KindText, Required: true},
					{Name: "pickupDate", Kind: KindDate, Required: true},
				},
			},
			{
				Name:    "cargo",
				Message: "Please describe the cargo, its weight and your price",
				Fields: []Field{
					{Name: "title", Kind: KindText, Required: true},
					{Name: "description", Kind: KindText},
					{Name: "weightKg", Kind: KindNumber, Required: true},
					{Name: "price", Kind: KindNumber, Required: true},
				},
			},
			{
				Name: "photo",
				Fields: []Field{
					{Name: "cargoPhoto", Kind: KindFile, Accept: "image/"},
				},
			},
			{Name: "done", Terminal: true},
		},
	}
}

// DriverDocumentsFlow uploads a driver's identity document.
func DriverDocumentsFlow() Definition {
	return Definition{
		Name:     FlowDriverDocuments,
		Endpoint: "driver-documents",
		Stages: []Stage{
			{
				Name:    "document",
				Message: "Please fill in the document type, number and expiry date",
				Fields: []Field{
					{Name: "documentType", Kind: KindSelect, Required: true, Options: []string{"driver_license", "passport", "id_card"}},
					{Name: "documentNumber", Kind: KindText, Required: true, Upper: true},
					{Name: "expiryDate", Kind: KindDate, Required: true},
					{Name: "consent", Kind: KindBool, Required: true},
				},
			},
			{
				Name:    "photos",
				Message: "Both photos are required",
				Fields: []Field{
					{Name: "imageFront", Kind: KindFile, Required: true, Accept: "image/"},
					{Name: "imageBack", Kind: KindFile, Required: true, Accept: "image/"},
				},
			},
			{Name: "done", Terminal: true},
		},
		Sensitive: []string{"documentNumber"},
	}
}

var registry = map[string]func() Definition{
	FlowVehicle:         VehicleFlow,
	FlowDeliveryRequest: DeliveryRequestFlow,
	FlowDriverDocuments: DriverDocumentsFlow,
}

func init() {
	for _, f := range registry {
		if err := f().Check(); err != nil {
			panic(err)
		}
	}
}

// Lookup returns the definition registered under name.
func Lookup(name string) (Definition, bool) {
	f, ok := registry[name]
	if !ok {
		return Definition{}, false
	}
	return f(), true
}

// Names lists registered flows.
func Names() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
