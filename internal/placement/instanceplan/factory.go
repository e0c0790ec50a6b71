package instanceplan

import (
	"github.com/google/uuid"

	"github.com/armadaproject/placement/internal/placement/model"
)

// Factory creates the three kinds of instance plan produced by the picker.
type Factory interface {
	DesiredNewInstancePlan(desired *model.DesiredInstance) *model.InstancePlan
	DesiredExistingInstancePlan(existing *model.ExistingInstance, desired *model.DesiredInstance) *model.InstancePlan
	ObsoleteInstancePlan(existing *model.ExistingInstance) *model.InstancePlan
}

// DefaultFactory gives new instances a fresh uuid and existing instances the uuid of their record.
type DefaultFactory struct {
	// Used to generate the uuid of new instances.
	idGenerator func() string
}

func NewFactory() *DefaultFactory {
	return NewFactoryWithIdGenerator(uuid.NewString)
}

func NewFactoryWithIdGenerator(idGenerator func() string) *DefaultFactory {
	return &DefaultFactory{idGenerator: idGenerator}
}

func (f *DefaultFactory) DesiredNewInstancePlan(desired *model.DesiredInstance) *model.InstancePlan {
	return &model.InstancePlan{
		Kind: model.NewInstancePlan,
		Instance: &model.Instance{
			Uuid:    f.idGenerator(),
			JobName: desired.JobName(),
			Index:   desired.Index,
		},
		DesiredInstance: desired,
	}
}

// DesiredExistingInstancePlan binds an existing instance to a desired slot.
// The instance keeps its identity but takes the index of the slot.
func (f *DefaultFactory) DesiredExistingInstancePlan(existing *model.ExistingInstance, desired *model.DesiredInstance) *model.InstancePlan {
	return &model.InstancePlan{
		Kind: model.ExistingDesiredInstancePlan,
		Instance: &model.Instance{
			Uuid:    existing.Uuid,
			JobName: existing.JobName,
			Index:   desired.Index,
		},
		DesiredInstance:  desired,
		ExistingInstance: existing,
	}
}

func (f *DefaultFactory) ObsoleteInstancePlan(existing *model.ExistingInstance) *model.InstancePlan {
	return &model.InstancePlan{
		Kind: model.ObsoleteInstancePlan,
		Instance: &model.Instance{
			Uuid:    existing.Uuid,
			JobName: existing.JobName,
			Index:   existing.Index,
		},
		ExistingInstance: existing,
	}
}
