package libutil

// QuadStrip is the full canvas quad as a triangle strip.
var QuadStrip = []float32{-1, -1, 1, -1, -1, 1, 1, 1}

// QuadTriangles is the full canvas quad as two triangles.
var QuadTriangles = []float32{-1, -1, 1, -1, -1, 1, -1, 1, 1, -1, 1, 1}

// QuadFan is the full canvas quad as a triangle fan.
var QuadFan = []float32{-1, -1, 1, -1, 1, 1, -1, 1}
