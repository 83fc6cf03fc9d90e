package terraform

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudmasa/engine/internal/credentials"
	"github.com/cloudmasa/engine/internal/errdefs"
	"github.com/cloudmasa/engine/internal/execx"
)

var testCred = &credentials.Credential{
	AccountID:       "123456789012",
	AccessKeyID:     "AKIAEXAMPLE",
	SecretAccessKey: "secret",
	Region:          "us-east-1",
}

func testRunner(t *testing.T, fake *execx.FakeRunner) *Runner {
	t.Helper()
	return New(Config{
		Binary:    "terraform",
		ModuleDir: "/opt/modules/cluster",
		StateDir:  t.TempDir(),
	}, fake)
}

func TestInitApplyDestroyCommandLines(t *testing.T) {
	fake := execx.NewFakeRunner()
	r := testRunner(t, fake)

	ws, release, err := r.Acquire("demo")
	require.NoError(t, err)
	defer release()

	require.NoError(t, r.Init(context.Background(), ws, testCred))
	require.NoError(t, r.Apply(context.Background(), ws, testCred))
	require.NoError(t, r.Destroy(context.Background(), ws, testCred))

	assert.Equal(t, []string{
		"terraform init -input=false -upgrade",
		"terraform apply -auto-approve -input=false",
		"terraform destroy -auto-approve -input=false",
	}, fake.CommandLines())

	for _, call := range fake.Calls {
		assert.Equal(t, ws.Dir, call.Dir)
		assert.Equal(t, "AKIAEXAMPLE", call.Env["AWS_ACCESS_KEY_ID"])
		assert.Equal(t, "us-east-1", call.Env["AWS_DEFAULT_REGION"])
	}
}

func TestApplyFailureCarriesStep(t *testing.T) {
	fake := execx.NewFakeRunner().
		On("terraform apply", execx.Result{ExitCode: 1, Stderr: "Error: quota exceeded"},
			errdefs.ExternalTool("terraform", "Error: quota exceeded", nil))
	r := testRunner(t, fake)

	ws, release, err := r.Acquire("demo")
	require.NoError(t, err)
	defer release()

	err = r.Apply(context.Background(), ws, testCred)
	require.Error(t, err)
	assert.True(t, errdefs.IsKind(err, errdefs.KindExternalTool))
	assert.Contains(t, err.Error(), "terraform-apply")
}

func TestWriteModuleRendersConfig(t *testing.T) {
	r := testRunner(t, execx.NewFakeRunner())

	ws, release, err := r.Acquire("demo")
	require.NoError(t, err)
	defer release()

	require.NoError(t, r.WriteModule(ws, Vars{
		ClusterName:       "demo",
		Region:            "us-east-1",
		VPCID:             "vpc-0a1b2c",
		PublicSubnetIDs:   []string{"subnet-aaa", "subnet-bbb"},
		PrivateSubnetIDs:  []string{"subnet-ccc"},
		KubernetesVersion: "1.31",
		DesiredSize:       2,
		MinSize:           1,
		MaxSize:           4,
		InstanceTypes:     []string{"t3.medium"},
		CapacityType:      "ON_DEMAND",
		IngressCIDR:       "0.0.0.0/0",
	}))

	data, err := os.ReadFile(filepath.Join(ws.Dir, "main.tf"))
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, `source = "/opt/modules/cluster"`)
	assert.Contains(t, content, `cluster_name       = "demo"`)
	assert.Contains(t, content, `public_subnet_ids  = ["subnet-aaa", "subnet-bbb"]`)
	assert.Contains(t, content, `private_subnet_ids = ["subnet-ccc"]`)
	assert.Contains(t, content, `desired_size   = 2`)
	assert.Contains(t, content, `capacity_type  = "ON_DEMAND"`)
	assert.Contains(t, content, `endpoint_public_access  = false`)
}

func TestAcquireSerializesPerCluster(t *testing.T) {
	r := testRunner(t, execx.NewFakeRunner())

	_, release, err := r.Acquire("demo")
	require.NoError(t, err)

	acquired := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, second, err := r.Acquire("demo")
		assert.NoError(t, err)
		close(acquired)
		second()
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire succeeded while first still held")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	wg.Wait()
	<-acquired
}

func TestAcquireIndependentClusters(t *testing.T) {
	r := testRunner(t, execx.NewFakeRunner())

	_, releaseA, err := r.Acquire("alpha")
	require.NoError(t, err)
	defer releaseA()

	done := make(chan struct{})
	go func() {
		_, releaseB, err := r.Acquire("beta")
		assert.NoError(t, err)
		releaseB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("independent cluster blocked on another cluster's lock")
	}
}
