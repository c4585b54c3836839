package grid

import "github.com/google/uuid"

// ContingencyGroup is a set of branches assumed to fail simultaneously
// (an N-x contingency).
type ContingencyGroup struct {
	ID   uuid.UUID
	Name string
}

func NewContingencyGroup(name string) *ContingencyGroup {
	return &ContingencyGroup{ID: uuid.New(), Name: name}
}

// Contingency assigns one branch, identified by its device ID, to a group.
type Contingency struct {
	ID       uuid.UUID
	Group    *ContingencyGroup
	DeviceID uuid.UUID
}

func NewContingency(group *ContingencyGroup, deviceID uuid.UUID) *Contingency {
	return &Contingency{ID: uuid.New(), Group: group, DeviceID: deviceID}
}
