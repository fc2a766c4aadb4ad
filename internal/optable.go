package internal

// precedence is the parsing information of a binary operator symbol.
type precedence struct {
	// Prec is the binding power. Higher is more binding.
	Prec int
	// Right is set for right-associative operators.
	Right bool
}

// binaryPrec holds the precedence of the infix operators, following Python.
// ** is absent because its operands are not ordinary binary operands: the
// left is a primary and the right may be a unary expression.
var binaryPrec = map[string]precedence{
	"==": {1, false},
	"!=": {1, false},
	"<":  {1, false},
	"<=": {1, false},
	">":  {1, false},
	">=": {1, false},
	"|":  {2, false},
	"^":  {3, false},
	"&":  {4, false},
	"<<": {5, false},
	">>": {5, false},
	"+":  {6, false},
	"-":  {6, false},
	"*":  {7, false},
	"@":  {7, false},
	"/":  {7, false},
	"//": {7, false},
	"%":  {7, false},
}

// augmented maps augmented assignment symbols to their operators.
var augmented = map[string]string{
	"+=":  "+",
	"-=":  "-",
	"*=":  "*",
	"@=":  "@",
	"/=":  "/",
	"//=": "//",
	"%=":  "%",
	"**=": "**",
	"<<=": "<<",
	">>=": ">>",
	"&=":  "&",
	"^=":  "^",
	"|=":  "|",
}
