package loader

import "testing"

func TestIsSDKClassPrefixes(t *testing.T) {
	sdk := []string{
		"Ljava/lang/String;", "Ljavax/net/ssl/SSLContext;",
		"Landroid/os/Bundle;", "Ldalvik/system/DexFile;",
		"Lsun/misc/Unsafe;", "Lorg/apache/http/Header;",
		"Lorg/xml/sax/Parser;", "Lorg/w3c/dom/Node;",
		"Lorg/json/JSONObject;", "Ljunit/framework/TestCase;",
	}
	for _, c := range sdk {
		if !isSDKClass(c) {
			t.Errorf("isSDKClass(%q) = false, want true", c)
		}
	}
	app := []string{"Lcom/example/Target;", "LObf;"}
	for _, c := range app {
		if isSDKClass(c) {
			t.Errorf("isSDKClass(%q) = true, want false", c)
		}
	}
}
