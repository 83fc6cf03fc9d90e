// Package netclass partitions network subnets into public and private sets
// using tag heuristics.
//
// Cluster networking requires at least one subnet of each kind; callers are
// expected to reject a partition where either side is empty.
package netclass

import "strings"

// internalLBRoleTag marks a subnet as a target for internal load balancers.
// Its presence is the strongest signal that a subnet is private.
const internalLBRoleTag = "kubernetes.io/role/internal-elb"

// Subnet is the minimal subnet view the classifier needs.
type Subnet struct {
	ID   string
	Tags map[string]string
}

// Partition is the result of classifying a set of subnets.
type Partition struct {
	Public  []string
	Private []string
}

// Complete reports whether the partition has at least one subnet on each
// side, the minimum for cluster networking.
func (p Partition) Complete() bool {
	return len(p.Public) > 0 && len(p.Private) > 0
}

// Classify partitions subnets into public and private. A subnet is private
// if it carries the internal load balancer role tag or its Name tag contains
// "private" (case-insensitive); otherwise it is public.
func Classify(subnets []Subnet) Partition {
	var p Partition
	for _, s := range subnets {
		if isPrivate(s) {
			p.Private = append(p.Private, s.ID)
		} else {
			p.Public = append(p.Public, s.ID)
		}
	}
	return p
}

func isPrivate(s Subnet) bool {
	if _, ok := s.Tags[internalLBRoleTag]; ok {
		return true
	}
	return strings.Contains(strings.ToLower(s.Tags["Name"]), "private")
}
