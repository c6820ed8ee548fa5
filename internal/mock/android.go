package mock

import "github.com/fatalsec/dalivm/internal/value"

func init() {
	Register(HookDef{Class: "Landroid/content/pm/PackageInfo;", Method: "<init>", Hook: packageInfoInit})
	Register(HookDef{Class: "Landroid/content/Context;", Method: "getPackageName", Hook: getPackageName})
	Register(HookDef{Class: "Landroid/content/pm/PackageManager;", Method: "getPackageInfo", Hook: getPackageInfo})
	Register(HookDef{Class: "Landroid/content/pm/Signature;", Method: "toByteArray", Hook: signatureToByteArray})

	Register(HookDef{Class: "Ljava/lang/Class;", Method: "forName", Hook: classForName})
	Register(HookDef{Class: "Ljava/lang/Class;", Method: "getMethod", Hook: classGetMethod})
	Register(HookDef{Class: "Ljava/lang/Class;", Method: "getField", Hook: classGetField})
	Register(HookDef{Class: "Ljava/lang/reflect/Method;", Method: "invoke", Hook: methodInvoke})
}

// packageInfoInit seeds a PackageInfo object with the configured package
// identity, standing in for what PackageManager.getPackageInfo would
// otherwise hand back from the device's installed-package registry.
func packageInfoInit(args Args, cfg *Config) (value.Value, bool) {
	o, ok := receiverObj(args)
	if !ok {
		return value.Null(), false
	}
	o.SetField("packageName", value.FromObject(value.NewString(cfg.PackageName)))
	o.SetField("versionCode", value.Int(cfg.VersionCode))
	o.SetField("versionName", value.FromObject(value.NewString(cfg.VersionName)))
	sig := value.NewObject("Landroid/content/pm/Signature;")
	sig.Internal = cfg.SignatureBytes
	arr := value.NewArray("[Landroid/content/pm/Signature;", 1)
	arr.Set(0, value.FromObject(sig))
	o.SetField("signatures", value.FromArray(arr))
	return value.Null(), true
}

func getPackageName(args Args, cfg *Config) (value.Value, bool) {
	return value.FromObject(value.NewString(cfg.PackageName)), true
}

func getPackageInfo(args Args, cfg *Config) (value.Value, bool) {
	info := value.NewObject("Landroid/content/pm/PackageInfo;")
	packageInfoInit(Args{value.FromObject(info)}, cfg)
	return value.FromObject(info), true
}

func signatureToByteArray(args Args, cfg *Config) (value.Value, bool) {
	o, ok := receiverObj(args)
	if !ok {
		return value.Null(), false
	}
	b, _ := o.Internal.([]byte)
	arr := value.NewArray("[B", len(b))
	for i, by := range b {
		arr.Set(i, value.Int(int32(by)))
	}
	return value.FromArray(arr), true
}

// classForName, classGetMethod and classGetField give back opaque handles carrying enough of the requested descriptor for later
// reflective calls to round-trip, without modeling the JVM's actual
// reflection machinery (no analysis target exercises the looked-up member
// beyond re-invoking it).
func classForName(args Args, cfg *Config) (value.Value, bool) {
	if len(args) == 0 {
		return value.Null(), false
	}
	name := argText(args[0])
	o := value.NewObject("Ljava/lang/Class;")
	o.Internal = name
	return value.FromObject(o), true
}

func classGetMethod(args Args, cfg *Config) (value.Value, bool) {
	recv, ok := receiverObj(args)
	if !ok || len(args) < 2 {
		return value.Null(), false
	}
	className, _ := recv.Internal.(string)
	o := value.NewObject("Ljava/lang/reflect/Method;")
	o.SetField("declaringClass", value.FromObject(value.NewString(className)))
	o.SetField("name", value.FromObject(value.NewString(argText(args[1]))))
	return value.FromObject(o), true
}

func classGetField(args Args, cfg *Config) (value.Value, bool) {
	recv, ok := receiverObj(args)
	if !ok || len(args) < 2 {
		return value.Null(), false
	}
	className, _ := recv.Internal.(string)
	o := value.NewObject("Ljava/lang/reflect/Field;")
	o.SetField("declaringClass", value.FromObject(value.NewString(className)))
	o.SetField("name", value.FromObject(value.NewString(argText(args[1]))))
	return value.FromObject(o), true
}

// methodInvoke answers a reflective call by the handle's method name:
// getPackageName and getPackageInfo go to their package-info mocks. Any
// other name reports failure; the mock layer cannot itself re-enter the
// class loader to run bytecode for it.
func methodInvoke(args Args, cfg *Config) (value.Value, bool) {
	recv, ok := receiverObj(args)
	if !ok {
		return value.Null(), false
	}
	name, _ := recv.GetField("name").Obj.Text()
	switch name {
	case "getPackageName":
		return getPackageName(args, cfg)
	case "getPackageInfo":
		return getPackageInfo(args, cfg)
	}
	return value.Null(), false
}
