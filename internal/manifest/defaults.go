package manifest

// Versions pins the release versions rigup installs by default.
type Versions struct {
	Kn  string
	K9s string
	Yq  string
}

// DefaultVersions contains the hard-coded tool versions used by rigup.
// These versions are tested and verified to work together. The installer
// scripts (ibmcloud, k3d) and the oc stable channel are unversioned.
var DefaultVersions = Versions{
	Kn:  "1.15.0",
	K9s: "0.32.5",
	Yq:  "4.44.3",
}

// Default returns the built-in six-tool catalog in installation order:
// deployment CLI, cluster dashboard, YAML processor, cloud-provider CLI,
// lightweight Kubernetes distribution, cloud-platform CLI.
func Default() *Manifest {
	return &Manifest{Tools: []ToolSpec{
		{
			Name:        "kn",
			Kind:        KindBinary,
			Version:     DefaultVersions.Kn,
			URL:         "https://github.com/knative/client/releases/download/knative-v{version}/kn-linux-{arch}",
			ChecksumURL: "https://github.com/knative/client/releases/download/knative-v{version}/checksums.txt",
			Target:      "/usr/local/bin/kn",
			Mode:        0o755,
		},
		{
			Name:          "k9s",
			Kind:          KindArchive,
			Version:       DefaultVersions.K9s,
			URL:           "https://github.com/derailed/k9s/releases/download/v{version}/k9s_Linux_{arch}.tar.gz",
			ChecksumURL:   "https://github.com/derailed/k9s/releases/download/v{version}/checksums.sha256",
			ArchiveMember: "k9s",
			Target:        "/usr/local/bin/k9s",
			Mode:          0o755,
		},
		{
			Name:    "yq",
			Kind:    KindBinary,
			Version: DefaultVersions.Yq,
			URL:     "https://github.com/mikefarah/yq/releases/download/v{version}/yq_linux_{arch}",
			Target:  "/usr/local/bin/yq",
			Mode:    0o755,
		},
		{
			Name: "ibmcloud",
			Kind: KindScript,
			URL:  "https://clis.cloud.ibm.com/install/linux",
			ArchURLs: map[string]string{
				"arm64": "https://clis.cloud.ibm.com/install/linux_arm64",
			},
			PostInstall: [][]string{
				{"ibmcloud", "plugin", "install", "container-registry", "-f"},
			},
			ProfileLines: []ProfileLine{
				{File: ".bash_aliases", Line: "alias ic=ibmcloud"},
			},
		},
		{
			Name: "k3d",
			Kind: KindScript,
			URL:  "https://raw.githubusercontent.com/k3d-io/k3d/main/install.sh",
			ProfileLines: []ProfileLine{
				{File: ".bash_aliases", Line: "alias kc='kubectl'"},
				{File: ".bashrc", Line: "source <(kubectl completion bash)"},
			},
		},
		{
			Name:          "oc",
			Kind:          KindArchive,
			URL:           "https://mirror.openshift.com/pub/openshift-v4/{arch}/clients/ocp/stable/openshift-client-linux.tar.gz",
			ChecksumURL:   "https://mirror.openshift.com/pub/openshift-v4/{arch}/clients/ocp/stable/sha256sum.txt",
			ArchiveMember: "oc",
			Target:        "/usr/local/bin/oc",
			Links:         []string{"/usr/bin/oc"},
			Mode:          0o755,
		},
	}}
}
