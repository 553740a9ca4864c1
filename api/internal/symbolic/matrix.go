package symbolic

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNonSquare marks a determinant or inverse request on a non-square matrix.
	ErrNonSquare = errors.New("matrix is not square")
	// ErrSingular marks an inverse request on a matrix with zero determinant.
	ErrSingular = errors.New("matrix is singular")
)

// Matrix holds expression entries in row-major order. All arithmetic stays
// exact, so determinants and inverses of rational matrices never drift.
type Matrix struct {
	rows, cols int
	data       [][]Expr
}

// NewMatrix builds a matrix from rows, which must be non-empty and rectangular.
func NewMatrix(rows [][]Expr) (*Matrix, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.New("matrix has no entries")
	}
	width := len(rows[0])
	data := make([][]Expr, len(rows))
	for i, r := range rows {
		if len(r) != width {
			return nil, fmt.Errorf("row %d has %d entries, want %d", i+1, len(r), width)
		}
		data[i] = make([]Expr, width)
		for j, e := range r {
			data[i][j] = e.Simplify()
		}
	}
	return &Matrix{rows: len(rows), cols: width, data: data}, nil
}

// ParseMatrixLiteral reads the bracket form "[[1,2],[3,4]]". Entries go
// through the expression parser, so fractions and symbols are accepted.
func ParseMatrixLiteral(input string) (*Matrix, error) {
	s := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\n' {
			return -1
		}
		return r
	}, input)
	if !strings.HasPrefix(s, "[[") || !strings.HasSuffix(s, "]]") {
		return nil, &ParseError{Input: input, Msg: "matrix literal must look like [[a,b],[c,d]]"}
	}
	body := s[2 : len(s)-2]
	var rows [][]Expr
	for _, rowText := range strings.Split(body, "],[") {
		var row []Expr
		for _, cell := range strings.Split(rowText, ",") {
			e, err := Parse(cell)
			if err != nil {
				return nil, err
			}
			row = append(row, e)
		}
		rows = append(rows, row)
	}
	return NewMatrix(rows)
}

func (m *Matrix) Rows() int { return m.rows }
func (m *Matrix) Cols() int { return m.cols }

// At returns the entry at (i, j), zero-based.
func (m *Matrix) At(i, j int) Expr { return m.data[i][j] }

func (m *Matrix) IsSquare() bool { return m.rows == m.cols }

func (m *Matrix) String() string {
	var rows []string
	for _, r := range m.data {
		var cells []string
		for _, e := range r {
			cells = append(cells, e.String())
		}
		rows = append(rows, "["+strings.Join(cells, ", ")+"]")
	}
	return "[" + strings.Join(rows, ", ") + "]"
}

// LaTeX renders the matrix as a pmatrix environment.
func (m *Matrix) LaTeX() string {
	var b strings.Builder
	b.WriteString("\\begin{pmatrix}")
	for i, r := range m.data {
		if i > 0 {
			b.WriteString(" \\\\ ")
		}
		for j, e := range r {
			if j > 0 {
				b.WriteString(" & ")
			}
			b.WriteString(e.LaTeX())
		}
	}
	b.WriteString("\\end{pmatrix}")
	return b.String()
}

// Transpose swaps rows and columns.
func (m *Matrix) Transpose() *Matrix {
	data := make([][]Expr, m.cols)
	for j := 0; j < m.cols; j++ {
		data[j] = make([]Expr, m.rows)
		for i := 0; i < m.rows; i++ {
			data[j][i] = m.data[i][j]
		}
	}
	return &Matrix{rows: m.cols, cols: m.rows, data: data}
}

// Det computes the determinant by cofactor expansion along the first row.
func (m *Matrix) Det() (Expr, error) {
	if !m.IsSquare() {
		return nil, ErrNonSquare
	}
	return m.det(), nil
}

func (m *Matrix) det() Expr {
	if m.rows == 1 {
		return m.data[0][0]
	}
	if m.rows == 2 {
		return Subtract(
			Product(m.data[0][0], m.data[1][1]),
			Product(m.data[0][1], m.data[1][0]),
		)
	}
	var terms []Expr
	for j := 0; j < m.cols; j++ {
		cofactor := Product(m.data[0][j], m.minor(0, j).det())
		if j%2 == 1 {
			cofactor = Neg(cofactor)
		}
		terms = append(terms, cofactor)
	}
	return Sum(terms...)
}

func (m *Matrix) minor(row, col int) *Matrix {
	data := make([][]Expr, 0, m.rows-1)
	for i, r := range m.data {
		if i == row {
			continue
		}
		out := make([]Expr, 0, m.cols-1)
		for j, e := range r {
			if j == col {
				continue
			}
			out = append(out, e)
		}
		data = append(data, out)
	}
	return &Matrix{rows: m.rows - 1, cols: m.cols - 1, data: data}
}

// Inverse computes the adjugate divided by the determinant. A determinant
// that simplifies to zero reports ErrSingular; a symbolic determinant that
// cannot be decided stays in the result unchallenged.
func (m *Matrix) Inverse() (*Matrix, error) {
	if !m.IsSquare() {
		return nil, ErrNonSquare
	}
	det := m.det()
	if isZeroExpr(det) {
		return nil, ErrSingular
	}
	data := make([][]Expr, m.rows)
	for i := range data {
		data[i] = make([]Expr, m.cols)
		for j := range data[i] {
			// Adjugate: transposed cofactors.
			cof := m.minor(j, i).det()
			if (i+j)%2 == 1 {
				cof = Neg(cof)
			}
			data[i][j] = Quotient(cof, det).Simplify()
		}
	}
	return &Matrix{rows: m.rows, cols: m.cols, data: data}, nil
}

// RREF reduces the matrix to reduced row echelon form with exact pivots.
// Pivot selection requires entries that simplify to literal numbers, which
// holds for the rational matrices this takes as input.
func (m *Matrix) RREF() *Matrix {
	data := make([][]Expr, m.rows)
	for i, r := range m.data {
		data[i] = append([]Expr(nil), r...)
	}
	out := &Matrix{rows: m.rows, cols: m.cols, data: data}

	pivotRow := 0
	for col := 0; col < out.cols && pivotRow < out.rows; col++ {
		sel := -1
		for i := pivotRow; i < out.rows; i++ {
			if !isZeroExpr(out.data[i][col].Simplify()) {
				sel = i
				break
			}
		}
		if sel < 0 {
			continue
		}
		out.data[pivotRow], out.data[sel] = out.data[sel], out.data[pivotRow]

		pivot := out.data[pivotRow][col]
		for j := col; j < out.cols; j++ {
			out.data[pivotRow][j] = Quotient(out.data[pivotRow][j], pivot).Simplify()
		}
		for i := 0; i < out.rows; i++ {
			if i == pivotRow {
				continue
			}
			factor := out.data[i][col]
			if isZeroExpr(factor) {
				continue
			}
			for j := col; j < out.cols; j++ {
				out.data[i][j] = Subtract(
					out.data[i][j],
					Product(factor, out.data[pivotRow][j]),
				).Simplify()
			}
		}
		pivotRow++
	}
	return out
}
