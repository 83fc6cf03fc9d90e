package netclass

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		subnets     []Subnet
		wantPublic  []string
		wantPrivate []string
	}{
		{
			name: "internal lb role tag marks private",
			subnets: []Subnet{
				{ID: "subnet-aaa", Tags: map[string]string{"kubernetes.io/role/internal-elb": "1"}},
				{ID: "subnet-bbb", Tags: map[string]string{}},
			},
			wantPublic:  []string{"subnet-bbb"},
			wantPrivate: []string{"subnet-aaa"},
		},
		{
			name: "name tag containing private marks private",
			subnets: []Subnet{
				{ID: "subnet-aaa", Tags: map[string]string{"Name": "demo-Private-1a"}},
				{ID: "subnet-bbb", Tags: map[string]string{"Name": "demo-public-1b"}},
			},
			wantPublic:  []string{"subnet-bbb"},
			wantPrivate: []string{"subnet-aaa"},
		},
		{
			name: "untagged subnets are public",
			subnets: []Subnet{
				{ID: "subnet-aaa"},
				{ID: "subnet-bbb", Tags: map[string]string{"Name": "demo-1b"}},
			},
			wantPublic: []string{"subnet-aaa", "subnet-bbb"},
		},
		{
			name: "empty input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Classify(tt.subnets)
			assert.Equal(t, tt.wantPublic, p.Public)
			assert.Equal(t, tt.wantPrivate, p.Private)
		})
	}
}

func TestPartitionComplete(t *testing.T) {
	assert.True(t, Partition{Public: []string{"a"}, Private: []string{"b"}}.Complete())
	assert.False(t, Partition{Public: []string{"a", "b"}}.Complete())
	assert.False(t, Partition{Private: []string{"a"}}.Complete())
	assert.False(t, Partition{}.Complete())
}
