package domain

// Job 计算平台（UCloud）中的一个作业
type Job struct {
	ID            string           `json:"id"`
	Status        JobStatus        `json:"status"`
	Specification JobSpecification `json:"specification"`
	Owner         JobOwner         `json:"owner"`
}

// JobStatus 作业状态
type JobStatus struct {
	State string `json:"state"`
}

// JobSpecification 作业规格
type JobSpecification struct {
	Product ProductReference `json:"product"`
}

// ProductReference 产品引用
type ProductReference struct {
	ID       string `json:"id"`
	Category string `json:"category,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// JobOwner 作业所有者
type JobOwner struct {
	CreatedBy string `json:"createdBy"`
	Project   string `json:"project,omitempty"`
}
