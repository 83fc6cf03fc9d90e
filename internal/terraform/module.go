package terraform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Vars are the module inputs for one cluster.
type Vars struct {
	ClusterName      string
	Region           string
	VPCID            string
	PublicSubnetIDs  []string
	PrivateSubnetIDs []string

	KubernetesVersion string
	DesiredSize       int
	MinSize           int
	MaxSize           int
	InstanceTypes     []string
	CapacityType      string

	IngressCIDR           string
	EndpointPublicAccess  bool
	EndpointPrivateAccess bool
}

// WriteModule renders the root module configuration into the
// workspace. The file persists there so a later destroy runs against
// the same inputs without re-supplying them.
func (r *Runner) WriteModule(ws *Workspace, vars Vars) error {
	content := renderModule(r.cfg.ModuleDir, vars)
	path := filepath.Join(ws.Dir, "main.tf")
	if err := os.WriteFile(path, []byte(content), 0o640); err != nil {
		return fmt.Errorf("failed to write module config: %w", err)
	}
	return nil
}

func renderModule(moduleDir string, vars Vars) string {
	var b strings.Builder

	fmt.Fprintf(&b, "provider \"aws\" {\n  region = %q\n}\n\n", vars.Region)

	fmt.Fprintf(&b, "module \"cluster\" {\n")
	fmt.Fprintf(&b, "  source = %q\n\n", moduleDir)
	fmt.Fprintf(&b, "  cluster_name       = %q\n", vars.ClusterName)
	fmt.Fprintf(&b, "  kubernetes_version = %q\n", vars.KubernetesVersion)
	fmt.Fprintf(&b, "  vpc_id             = %q\n", vars.VPCID)
	fmt.Fprintf(&b, "  public_subnet_ids  = %s\n", hclList(vars.PublicSubnetIDs))
	fmt.Fprintf(&b, "  private_subnet_ids = %s\n\n", hclList(vars.PrivateSubnetIDs))
	fmt.Fprintf(&b, "  desired_size   = %d\n", vars.DesiredSize)
	fmt.Fprintf(&b, "  min_size       = %d\n", vars.MinSize)
	fmt.Fprintf(&b, "  max_size       = %d\n", vars.MaxSize)
	fmt.Fprintf(&b, "  instance_types = %s\n", hclList(vars.InstanceTypes))
	fmt.Fprintf(&b, "  capacity_type  = %q\n\n", vars.CapacityType)
	fmt.Fprintf(&b, "  ingress_cidr            = %q\n", vars.IngressCIDR)
	fmt.Fprintf(&b, "  endpoint_public_access  = %t\n", vars.EndpointPublicAccess)
	fmt.Fprintf(&b, "  endpoint_private_access = %t\n", vars.EndpointPrivateAccess)
	fmt.Fprintf(&b, "}\n")

	return b.String()
}

func hclList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = fmt.Sprintf("%q", item)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
