package models

// MergeProfile configures output options for a merge.
type MergeProfile struct {
	// OutputPrefix is the filename prefix of the merged artifact.
	OutputPrefix string `json:"outputPrefix" yaml:"outputPrefix"`
	// Optimize runs a pdfcpu optimization pass over the merged output.
	Optimize bool `json:"optimize" yaml:"optimize"`
	// DividerPage inserts a blank page between source documents.
	DividerPage bool `json:"dividerPage" yaml:"dividerPage"`
}

// DefaultMergeProfile returns the profile used when no profile.yaml exists.
func DefaultMergeProfile() MergeProfile {
	return MergeProfile{
		OutputPrefix: "merged",
		Optimize:     true,
		DividerPage:  false,
	}
}
