package rill_test

import (
	"testing"
	"testing/fstest"

	"github.com/rill-lang/rill/frontend/rillerr"
	"github.com/rill-lang/rill/frontend/types"
	"github.com/rill-lang/rill/internal/limits"
	"github.com/rill-lang/rill/rill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func check(t *testing.T, src string) (*rill.Package, *rillerr.Errors) {
	t.Helper()
	pkg, errs, err := rill.NewPackageFromBytes([]byte(src))
	require.NoError(t, err)
	return pkg, errs
}

func codes(errs *rillerr.Errors) []rillerr.ErrCode {
	var out []rillerr.ErrCode
	for _, e := range errs.Errors() {
		out = append(out, e.Code())
	}
	return out
}

func TestWellTypedProgram(t *testing.T) {
	_, errs := check(t, `
fn add(a: Int, b: Int) -> Int { a + b }

fn main() -> Int { add(1, 2) }
`)
	assert.False(t, errs.HasError(), "unexpected errors: %v", codes(errs))
}

func TestPolymorphicIdentity(t *testing.T) {
	_, errs := check(t, `
fn id(x) { x }

fn main() -> Int {
	id("left");
	id(1)
}
`)
	assert.False(t, errs.HasError(), "unexpected errors: %v", codes(errs))
}

func TestUnannotatedReturnIsInferred(t *testing.T) {
	_, errs := check(t, `
fn one() { 1 }

fn main() -> Int { one() }
`)
	assert.False(t, errs.HasError(), "unexpected errors: %v", codes(errs))
}

func TestLetBindingStaysMonomorphic(t *testing.T) {
	// h's result is a single variable; binding it with let must not
	// quantify it, or y could be used at Bool and Int at once
	_, errs := check(t, `
fn f(h) -> Int {
	let y = h(5);
	if y { y + 1 } else { 0 }
}
`)
	require.True(t, errs.HasError())
	assert.Contains(t, codes(errs), rillerr.TypeMismatch)
}

func TestReturnTypeMismatch(t *testing.T) {
	_, errs := check(t, `
fn f() -> Int { "nope" }
`)
	require.True(t, errs.HasError())
	assert.Contains(t, codes(errs), rillerr.TypeMismatch)
}

func TestUnknownIdentifier(t *testing.T) {
	_, errs := check(t, `
fn f() -> Int { missing }
`)
	assert.Contains(t, codes(errs), rillerr.UnknownIdentifier)
}

func TestArithmeticDefaultsToInt(t *testing.T) {
	_, errs := check(t, `
fn double(x) -> Int { x + x }
`)
	assert.False(t, errs.HasError(), "unexpected errors: %v", codes(errs))
}

func TestSiblingFunctionsStillChecked(t *testing.T) {
	_, errs := check(t, `
fn broken() -> Int { "a" }

fn alsoBroken() -> Bool { 1 }
`)
	got := codes(errs)
	count := 0
	for _, c := range got {
		if c == rillerr.TypeMismatch {
			count++
		}
	}
	assert.Equal(t, 2, count, "one broken function must not hide its sibling, got %v", got)
}

func TestBorrowedCapabilityProgram(t *testing.T) {
	_, errs := check(t, `
extern fn read_line(h: &Fs, prompt: String) -> String ! {Fs}

fn greet(h: Fs) -> String ! {Fs} {
	read_line(h, "first");
	read_line(h, "second")
}
`)
	assert.False(t, errs.HasError(), "unexpected errors: %v", codes(errs))
}

func TestUndeclaredEffect(t *testing.T) {
	_, errs := check(t, `
extern fn read_line(h: &Fs, prompt: String) -> String ! {Fs}

fn quiet(h: Fs) -> String ! {} { read_line(h, "hi") }
`)
	assert.Contains(t, codes(errs), rillerr.UndeclaredEffect)
}

func TestDeclaredSupersetIsAllowed(t *testing.T) {
	_, errs := check(t, `
extern fn read_line(h: &Fs, prompt: String) -> String ! {Fs}

fn roomy(h: Fs, n: Net) -> String ! {Fs, Net} { read_line(h, "hi") }
`)
	assert.False(t, errs.HasError(), "extra declared tags are allowed: %v", codes(errs))
}

func TestCapabilityRequiredEvenWithZeroParams(t *testing.T) {
	// a function declaring an effect with no capability parameter at
	// all must still fail: the check cannot be skipped just because
	// there is nothing to scan
	_, errs := check(t, `
fn sneaky() -> Int ! {Time} { 0 }
`)
	assert.Contains(t, codes(errs), rillerr.MissingCapability)
}

func TestCapabilityMissingForPerformedEffect(t *testing.T) {
	_, errs := check(t, `
extern fn tick(t: &Time) -> Int ! {Time}

fn f(t: Time) -> Int { tick(t) }

fn g() -> Int ! {Time} { 1 }
`)
	got := codes(errs)
	assert.Contains(t, got, rillerr.MissingCapability)
	assert.NotContains(t, got, rillerr.UndeclaredEffect)
}

func TestUseAfterConsume(t *testing.T) {
	_, errs := check(t, `
fn consume(c: Fs) { () }

fn main(fs: Fs) {
	consume(fs);
	consume(fs)
}
`)
	assert.Contains(t, codes(errs), rillerr.UseAfterConsume)
}

func TestLetTransferConsumesSource(t *testing.T) {
	_, errs := check(t, `
fn main(fs: Fs) {
	let a = fs;
	let b = fs;
	()
}
`)
	require.True(t, errs.HasError())
	assert.Contains(t, codes(errs), rillerr.UseAfterConsume)
}

func TestLetTransferTargetIsUsable(t *testing.T) {
	_, errs := check(t, `
fn consume(c: Fs) { () }

fn main(fs: Fs) {
	let a = fs;
	consume(a)
}
`)
	assert.False(t, errs.HasError(), "unexpected errors: %v", codes(errs))
}

func TestPessimisticBranchJoin(t *testing.T) {
	_, errs := check(t, `
fn consume(c: Fs) { () }

fn main(fs: Fs, flag: Bool) {
	if flag { consume(fs) } else { () };
	consume(fs)
}
`)
	assert.Contains(t, codes(errs), rillerr.UseAfterConsume)
}

func TestConsumeInSingleBranchIsFine(t *testing.T) {
	_, errs := check(t, `
fn consume(c: Fs) { () }

fn main(fs: Fs, flag: Bool) {
	if flag { consume(fs) } else { consume(fs) }
}
`)
	assert.False(t, errs.HasError(), "each path consumes once: %v", codes(errs))
}

func TestSecondConsumeInOneCall(t *testing.T) {
	_, errs := check(t, `
fn pair(a: Fs, b: Fs) { () }

fn main(fs: Fs) { pair(fs, fs) }
`)
	assert.Contains(t, codes(errs), rillerr.SecondConsumeInCall)
}

func TestAffineUseInLoop(t *testing.T) {
	_, errs := check(t, `
fn consume(c: Fs) { () }

fn main(fs: Fs, flag: Bool) {
	while flag { consume(fs) }
}
`)
	assert.Contains(t, codes(errs), rillerr.UseInLoop)
}

func TestAffineCaptureRejected(t *testing.T) {
	_, errs := check(t, `
fn consume(c: Fs) { () }

fn main(fs: Fs) {
	let closure = fn() consume(fs);
	()
}
`)
	assert.Contains(t, codes(errs), rillerr.AffineCapture)
}

func TestShadowingIsNotConsumption(t *testing.T) {
	_, errs := check(t, `
fn main(fs: Fs) -> Int {
	let x = 1;
	let x = x + 1;
	x
}
`)
	assert.False(t, errs.HasError(), "unexpected errors: %v", codes(errs))
}

func TestNonExhaustiveMatch(t *testing.T) {
	_, errs := check(t, `
type Opt[a] = Some(a) | None

fn unwrap(o: Opt[Int]) -> Int {
	match o {
		Some(x) => x
	}
}
`)
	require.True(t, errs.HasError())
	require.Contains(t, codes(errs), rillerr.NonExhaustiveMatch)
	found := false
	for _, e := range errs.Errors() {
		if e.Code() == rillerr.NonExhaustiveMatch {
			assert.Contains(t, e.Error(), "None", "the witness names the missing variant")
			found = true
		}
	}
	assert.True(t, found)
}

func TestExhaustiveMatch(t *testing.T) {
	_, errs := check(t, `
type Opt[a] = Some(a) | None

fn unwrap(o: Opt[Int], fallback: Int) -> Int {
	match o {
		Some(x) => x,
		None => fallback
	}
}
`)
	assert.False(t, errs.HasError(), "unexpected errors: %v", codes(errs))
}

func TestBoolMatchNeedsBothSides(t *testing.T) {
	_, errs := check(t, `
fn f(b: Bool) -> Int {
	match b {
		true => 1
	}
}
`)
	assert.Contains(t, codes(errs), rillerr.NonExhaustiveMatch)
}

func TestRedundantArmIsAdvisory(t *testing.T) {
	_, errs := check(t, `
type Opt[a] = Some(a) | None

fn f(o: Opt[Int]) -> Int {
	match o {
		Some(x) => x,
		None => 0,
		_ => 1
	}
}
`)
	assert.False(t, errs.HasError(), "advisory diagnostics do not fail the build")
	assert.Contains(t, codes(errs), rillerr.RedundantArm)
}

func TestCapabilityInTypeDeclaration(t *testing.T) {
	_, errs := check(t, `
type Sneaky = Hide(Fs)
`)
	assert.Contains(t, codes(errs), rillerr.CapabilityInType)
}

func TestReservedTypeName(t *testing.T) {
	_, errs := check(t, `
type Int = Broken
`)
	assert.Contains(t, codes(errs), rillerr.ReservedTypeName)
}

func TestDuplicateFunction(t *testing.T) {
	_, errs := check(t, `
fn f() -> Int { 1 }
fn f() -> Int { 2 }
`)
	assert.Contains(t, codes(errs), rillerr.DuplicateDefinition)
}

func TestReferenceOutsideExtern(t *testing.T) {
	_, errs := check(t, `
fn f(h: &Fs) -> Int { 1 }
`)
	assert.Contains(t, codes(errs), rillerr.MisplacedReference)
}

func TestParseFailure(t *testing.T) {
	_, errs := check(t, `fn broken( {`)
	assert.Contains(t, codes(errs), rillerr.ParseFailure)
}

func TestEntryCapabilities(t *testing.T) {
	pkg, errs := check(t, `
fn main(fs: Fs, clock: Time) { () }
`)
	require.False(t, errs.HasError())

	caps, ok := pkg.EntryCapabilities("main")
	require.True(t, ok)
	assert.Equal(t, []types.CapKind{types.CapFs, types.CapTime}, caps)

	_, ok = pkg.EntryCapabilities("nope")
	assert.False(t, ok)
}

func TestTokenLimitIsFatal(t *testing.T) {
	lim := limits.Default()
	lim.MaxTokens = 4
	filesystem := fstest.MapFS{
		"test.rill": &fstest.MapFile{Data: []byte(`fn f() -> Int { 1 + 2 + 3 }`)},
	}
	pkg, err := rill.LoadPackage(filesystem, rill.PkgLoadSettings{Limits: &lim})
	require.NoError(t, err)
	assert.True(t, pkg.Errors().HasFatal())
	assert.Contains(t, codes(pkg.Errors()), rillerr.ResourceLimit)
}

func TestInferDepthLimitStopsTheUnit(t *testing.T) {
	lim := limits.Default()
	lim.MaxInferDepth = 3
	filesystem := fstest.MapFS{
		"test.rill": &fstest.MapFile{Data: []byte(`
fn deep() -> Int { 1 + 1 + 1 + 1 + 1 + 1 }

fn bad() -> Int { "nope" }
`)},
	}
	pkg, err := rill.LoadPackage(filesystem, rill.PkgLoadSettings{Limits: &lim})
	require.NoError(t, err)
	assert.True(t, pkg.Errors().HasFatal())
	assert.Contains(t, codes(pkg.Errors()), rillerr.ResourceLimit)
	// the limit violation aborts the unit before siblings are checked
	assert.NotContains(t, codes(pkg.Errors()), rillerr.TypeMismatch)
}

func TestSourceSizeLimitIsFatal(t *testing.T) {
	lim := limits.Default()
	lim.MaxSourceBytes = 8
	filesystem := fstest.MapFS{
		"test.rill": &fstest.MapFile{Data: []byte(`fn f() -> Int { 1 }`)},
	}
	pkg, err := rill.LoadPackage(filesystem, rill.PkgLoadSettings{Limits: &lim})
	require.NoError(t, err)
	assert.True(t, pkg.Errors().HasFatal())
}

func TestDiagnosticsCarrySourceExcerpt(t *testing.T) {
	pkg, errs := check(t, `
fn f() -> Int { "nope" }
`)
	require.True(t, errs.HasError())
	diags := pkg.Diagnostics()
	require.NotEmpty(t, diags)
	assert.Contains(t, diags[0], "test.rill:2:", "positions resolve to the offending line")
	assert.Contains(t, diags[0], "\"nope\"")
	assert.Contains(t, diags[0], "^")
}
