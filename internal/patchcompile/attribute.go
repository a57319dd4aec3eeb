package patchcompile

// IgnoresAccessChecksToSource synthesizes the source unit declaring the
// internal pseudo-attribute that suppresses accessibility checks
// against baselineAssembly. The real ExecCompiler prepends this to the
// compilation unit list; FixtureCompiler ignores it since fixture
// modules never enforce access checks to begin with.
func IgnoresAccessChecksToSource(baselineAssembly string) string {
	return "namespace System.Runtime.CompilerServices {\n" +
		"    [System.AttributeUsage(System.AttributeTargets.Assembly, AllowMultiple = true)]\n" +
		"    internal sealed class IgnoresAccessChecksToAttribute : System.Attribute {\n" +
		"        public IgnoresAccessChecksToAttribute(string assemblyName) { AssemblyName = assemblyName; }\n" +
		"        public string AssemblyName { get; }\n" +
		"    }\n" +
		"}\n" +
		"[assembly: System.Runtime.CompilerServices.IgnoresAccessChecksTo(\"" + baselineAssembly + "\")]\n"
}
