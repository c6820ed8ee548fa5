package mock

import "github.com/fatalsec/dalivm/internal/value"

// ForParamType returns a substitute value for an argument the slicer could
// not resolve (it stayed null after the slice ran), keyed on the target
// method's declared parameter descriptor, for the small catalogue of
// framework types a call site commonly passes without the archive itself
// ever constructing one in-slice (an Activity's Context, the process's own
// package name). ok is false for any descriptor outside that catalogue,
// leaving the unresolved argument as null rather than guessing.
func ForParamType(desc string, cfg *Config) (value.Value, bool) {
	switch desc {
	case "Ljava/lang/String;":
		return value.FromObject(value.NewString("")), true
	case "Landroid/content/Context;", "Landroid/app/Activity;", "Landroid/app/Application;":
		o := value.NewObject(desc)
		o.MockType = "context"
		return value.FromObject(o), true
	case "Landroid/content/pm/PackageManager;":
		o := value.NewObject(desc)
		o.MockType = "package-manager"
		return value.FromObject(o), true
	case "Landroid/content/pm/PackageInfo;":
		info := value.NewObject(desc)
		packageInfoInit(Args{value.FromObject(info)}, cfg)
		return value.FromObject(info), true
	case "Z":
		return value.Int(0), true
	case "I", "B", "S", "C":
		return value.Int(0), true
	case "J":
		return value.Long(0), true
	case "F":
		return value.Float(0), true
	case "D":
		return value.Double(0), true
	default:
		return value.Null(), false
	}
}
