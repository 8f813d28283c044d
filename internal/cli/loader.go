package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/build"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/magentaqin/wheelhouse/internal/plan"
)

// Error codes for profile loading.
const (
	ErrCodeNotFound    = "E001"
	ErrCodeLoadFailed  = "E002"
	ErrCodeBuildFailed = "E003"
	ErrCodeBadProfile  = "E004"
)

// LoadError represents an error that occurred during profile loading.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadProfile loads a plan profile from a CUE file or a directory of CUE
// files. The profile lives under the top-level "profile" field; fields left
// out fall back to the stock pixi defaults.
//
// Example profile:
//
//	profile: {
//		binary_prefix: "pixi"
//		logs_prefix:   "wheel-logs"
//		binary:        "pixi"
//		test_task:     "test-common-wheels-ci"
//	}
func LoadProfile(path string) (plan.Profile, error) {
	profile := plan.DefaultProfile()

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return profile, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("profile not found: %s", path)}
	}
	if err != nil {
		return profile, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing profile: %v", err)}
	}

	ctx := cuecontext.New()

	var instances []*build.Instance
	if info.IsDir() {
		instances = load.Instances([]string{"."}, &load.Config{Dir: path})
	} else {
		dir := filepath.Dir(path)
		instances = load.Instances([]string{filepath.Base(path)}, &load.Config{Dir: dir})
	}
	if len(instances) == 0 {
		return profile, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}

	inst := instances[0]
	if inst.Err != nil {
		return profile, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return profile, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	profileVal := value.LookupPath(cue.ParsePath("profile"))
	if !profileVal.Exists() {
		return profile, &LoadError{Code: ErrCodeBadProfile, Message: "profile field not found"}
	}

	// Overlay declared fields onto the defaults; absent fields keep their
	// stock values.
	overlay := plan.Profile{}
	if err := profileVal.Decode(&overlay); err != nil {
		return profile, &LoadError{Code: ErrCodeBadProfile, Message: fmt.Sprintf("decoding profile: %v", err)}
	}
	mergeProfile(&profile, overlay)

	if err := profile.Validate(); err != nil {
		return profile, &LoadError{Code: ErrCodeBadProfile, Message: err.Error()}
	}
	return profile, nil
}

func mergeProfile(dst *plan.Profile, src plan.Profile) {
	if src.BinaryPrefix != "" {
		dst.BinaryPrefix = src.BinaryPrefix
	}
	if src.LogsPrefix != "" {
		dst.LogsPrefix = src.LogsPrefix
	}
	if src.Binary != "" {
		dst.Binary = src.Binary
	}
	if src.TestTask != "" {
		dst.TestTask = src.TestTask
	}
	if src.DevDriveScript != "" {
		dst.DevDriveScript = src.DevDriveScript
	}
	if src.DriveCopyScript != "" {
		dst.DriveCopyScript = src.DriveCopyScript
	}
	if len(src.LogPatterns) > 0 {
		dst.LogPatterns = src.LogPatterns
	}
	if len(src.Env) > 0 {
		dst.Env = append(dst.Env, src.Env...)
	}
}
