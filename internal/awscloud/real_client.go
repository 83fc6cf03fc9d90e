package awscloud

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/eks"

	"github.com/cloudmasa/engine/internal/credentials"
	"github.com/cloudmasa/engine/internal/errdefs"
	"github.com/cloudmasa/engine/internal/netclass"
	"github.com/cloudmasa/engine/internal/util/retry"
)

const (
	apiMaxRetries = 3
	apiRetryDelay = 500 * time.Millisecond
)

// Factory builds a Client scoped to one account's credentials. The
// lifecycle engine resolves credentials per operation, so clients are
// constructed per call rather than held globally.
type Factory func(ctx context.Context, cred *credentials.Credential) (Client, error)

// RealClient implements Client against the live AWS APIs.
type RealClient struct {
	eks *eks.Client
	ec2 *ec2.Client
}

// NewClient builds a RealClient from a resolved credential.
func NewClient(ctx context.Context, cred *credentials.Credential) (Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cred.Region),
		awsconfig.WithCredentialsProvider(
			awscreds.NewStaticCredentialsProvider(cred.AccessKeyID, cred.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build aws config: %w", err)
	}

	return &RealClient{
		eks: eks.NewFromConfig(cfg),
		ec2: ec2.NewFromConfig(cfg),
	}, nil
}

// apiCall retries transient API failures with exponential backoff. Missing
// resources and credential problems are terminal and never retried.
func apiCall(ctx context.Context, step string, call func() error, opts ...retry.Option) error {
	base := []retry.Option{retry.WithMaxRetries(apiMaxRetries), retry.WithInitialDelay(apiRetryDelay)}
	return retry.WithExponentialBackoff(ctx, func() error {
		err := call()
		if err == nil {
			return nil
		}
		mapped := mapAPIError(step, err)
		if errdefs.KindOf(mapped) != errdefs.KindCloudAPI {
			return retry.Fatal(mapped)
		}
		return mapped
	}, append(base, opts...)...)
}

func (c *RealClient) DescribeCluster(ctx context.Context, name string) (*ClusterInfo, error) {
	var info *ClusterInfo
	err := apiCall(ctx, "describe cluster", func() error {
		out, err := c.eks.DescribeCluster(ctx, &eks.DescribeClusterInput{Name: aws.String(name)})
		if err != nil {
			return err
		}

		info = &ClusterInfo{
			Name:     aws.ToString(out.Cluster.Name),
			ARN:      aws.ToString(out.Cluster.Arn),
			Status:   string(out.Cluster.Status),
			Version:  aws.ToString(out.Cluster.Version),
			Endpoint: aws.ToString(out.Cluster.Endpoint),
		}
		if out.Cluster.CertificateAuthority != nil {
			info.CertificateAuthority = aws.ToString(out.Cluster.CertificateAuthority.Data)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (c *RealClient) UpdateClusterVersion(ctx context.Context, name, version string) error {
	return apiCall(ctx, "update cluster version", func() error {
		_, err := c.eks.UpdateClusterVersion(ctx, &eks.UpdateClusterVersionInput{
			Name:    aws.String(name),
			Version: aws.String(version),
		})
		return err
	})
}

func (c *RealClient) ListNodegroups(ctx context.Context, cluster string) ([]string, error) {
	var groups []string
	err := apiCall(ctx, "list nodegroups", func() error {
		groups = groups[:0]
		paginator := eks.NewListNodegroupsPaginator(c.eks, &eks.ListNodegroupsInput{
			ClusterName: aws.String(cluster),
		})
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				return err
			}
			groups = append(groups, page.Nodegroups...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return groups, nil
}

func (c *RealClient) DeleteNodegroup(ctx context.Context, cluster, nodegroup string) error {
	return apiCall(ctx, "delete nodegroup", func() error {
		_, err := c.eks.DeleteNodegroup(ctx, &eks.DeleteNodegroupInput{
			ClusterName:   aws.String(cluster),
			NodegroupName: aws.String(nodegroup),
		})
		return err
	})
}

func (c *RealClient) DescribeSubnets(ctx context.Context, subnetIDs []string) ([]netclass.Subnet, error) {
	var subnets []netclass.Subnet
	err := apiCall(ctx, "describe subnets", func() error {
		out, err := c.ec2.DescribeSubnets(ctx, &ec2.DescribeSubnetsInput{SubnetIds: subnetIDs})
		if err != nil {
			return err
		}

		subnets = make([]netclass.Subnet, 0, len(out.Subnets))
		for _, s := range out.Subnets {
			tags := make(map[string]string, len(s.Tags))
			for _, tag := range s.Tags {
				tags[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
			}
			subnets = append(subnets, netclass.Subnet{
				ID:   aws.ToString(s.SubnetId),
				Tags: tags,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return subnets, nil
}

func (c *RealClient) CountClusterNodes(ctx context.Context, cluster string) (int, error) {
	count := 0
	err := apiCall(ctx, "count cluster nodes", func() error {
		count = 0
		paginator := ec2.NewDescribeInstancesPaginator(c.ec2, &ec2.DescribeInstancesInput{
			Filters: []ec2types.Filter{
				{
					Name:   aws.String("tag:kubernetes.io/cluster/" + cluster),
					Values: []string{"owned", "shared"},
				},
				{
					Name:   aws.String("instance-state-name"),
					Values: []string{"running"},
				},
			},
		})
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				return err
			}
			for _, reservation := range page.Reservations {
				count += len(reservation.Instances)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
