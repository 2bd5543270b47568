package models

// Thresholds are the traffic-light boundaries, in days, for file age:
// green covers 0..Green, amber Green+1..Amber, red Amber+1..Red and beyond.
type Thresholds struct {
	Green int `bson:"green" json:"green" yaml:"green"`
	Amber int `bson:"amber" json:"amber" yaml:"amber"`
	Red   int `bson:"red" json:"red" yaml:"red"`
}
